// Package media saves extracted media to disk.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
)

// ErrNoMedia is returned when the result has no URL at the requested index.
var ErrNoMedia = errors.New("no media at index")

// Saver downloads media files referenced by a DownloadResult.
type Saver struct {
	http *http.Client
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewSaver(client *http.Client, logger logrus.FieldLogger) *Saver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Saver{
		http: client,
		log:  logger.WithField("component", "media"),
		now:  time.Now,
	}
}

// URLAt picks the gallery item at index, or the canonical download link when index < 0.
func URLAt(result *domain.DownloadResult, index int) (string, error) {
	if index < 0 {
		if result.DownloadLink == "" {
			return "", fmt.Errorf("%w: result has no download link", ErrNoMedia)
		}
		return result.DownloadLink, nil
	}
	if index >= len(result.URLs) {
		return "", fmt.Errorf("%w %d (gallery has %d items)", ErrNoMedia, index, len(result.URLs))
	}
	return result.URLs[index].URL, nil
}

// Save writes the media at index into dir as pinterest-<ms>.<ext> and returns the file path.
func (s *Saver) Save(ctx context.Context, result *domain.DownloadResult, index int, dir string) (string, error) {
	src, err := URLAt(result, index)
	if err != nil {
		return "", err
	}
	log := s.log.WithField("src", src)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(dir, result.SuggestedFileName(s.now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{"path": path, "bytes": n}).Info("Media saved")
	return path, nil
}
