package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
)

const statusSuccess = "success"

// maxErrorBody caps how much of a failed response is read looking for a message.
const maxErrorBody = 64 << 10

// APIClient implements Extractor against the pin-dl HTTP API.
type APIClient struct {
	endpoint string
	http     *http.Client
	log      logrus.FieldLogger
}

var _ Extractor = (*APIClient)(nil)

// Option configures an APIClient.
type Option func(*APIClient)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(a *APIClient) { a.http = c }
}

// NewAPIClient creates a client posting to endpoint.
func NewAPIClient(endpoint string, logger logrus.FieldLogger, opts ...Option) *APIClient {
	c := &APIClient{
		endpoint: endpoint,
		http:     http.DefaultClient,
		log:      logger.WithField("component", "extractor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Status string                 `json:"status"`
	Data   *domain.DownloadResult `json:"data"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Extract posts {"url": trimmed} to the endpoint. There is no retry and no
// timeout beyond the HTTP client's own; ctx is the only way to abandon a call.
func (c *APIClient) Extract(ctx context.Context, rawURL string) (*domain.DownloadResult, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, domain.NewEmptyURLError()
	}
	log := c.log.WithField("url", trimmed)

	body, err := json.Marshal(extractRequest{URL: trimmed})
	if err != nil {
		return nil, unexpected(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, unexpected(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("Requesting extraction")
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("Extraction request failed")
		return nil, unexpected(fmt.Errorf("post %s: %w", c.endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(resp.Body)
		log.WithFields(logrus.Fields{
			"status_code":    resp.StatusCode,
			"server_message": msg,
		}).Warn("Extraction API returned an error status")
		cause := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if msg != "" {
			return nil, &domain.ExtractionError{Message: msg, Cause: cause}
		}
		return nil, unexpected(cause)
	}

	var payload extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.WithError(err).Warn("Failed to decode extraction response")
		return nil, &domain.ExtractionError{Message: domain.MsgExtractFailed, Cause: fmt.Errorf("decode response: %w", err)}
	}

	if payload.Status != statusSuccess || payload.Data == nil {
		log.WithField("status", payload.Status).Info("Extraction API did not succeed")
		return nil, &domain.ExtractionError{
			Message: domain.MsgExtractFailed,
			Cause:   fmt.Errorf("api status %q", payload.Status),
		}
	}

	log.WithFields(logrus.Fields{
		"type":  payload.Data.Type,
		"items": len(payload.Data.URLs),
	}).Info("Extraction succeeded")
	return payload.Data, nil
}

// serverMessage pulls the "message" field out of an error body, or "" if there is none.
func serverMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}

func unexpected(cause error) *domain.ExtractionError {
	return &domain.ExtractionError{Message: domain.MsgUnexpectedError, Cause: cause}
}
