package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"pindl/internal/domain"
	"pindl/internal/extractor"
)

// pageTimeout bounds loading and reading a single pin page.
const pageTimeout = 30 * time.Second

// PageExtractor implements extractor.Extractor using the rod library.
type PageExtractor struct {
	log logrus.FieldLogger
}

var _ extractor.Extractor = (*PageExtractor)(nil)

// NewPageExtractor creates a new browser-backed extractor.
func NewPageExtractor(logger logrus.FieldLogger) *PageExtractor {
	return &PageExtractor{log: logger.WithField("component", "scraper")}
}

// Extract opens rawURL in a fresh headless browser and reads its Open Graph tags.
func (s *PageExtractor) Extract(ctx context.Context, rawURL string) (result *domain.DownloadResult, err error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return nil, domain.NewEmptyURLError()
	}
	log := s.log.WithField("url", url)
	log.Info("Scraping pin page")

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return nil, unexpected(errors.New("rod browser dependency not found"))
	}
	controlURL, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		return nil, unexpected(fmt.Errorf("launch browser: %w", err))
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return nil, unexpected(fmt.Errorf("failed to connect to browser: %w", err))
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing rod browser instance")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		log.WithError(err).Error("Failed to create rod page")
		return nil, unexpected(fmt.Errorf("failed to create page: %w", err))
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Error closing rod page")
		}
	}()

	if err := page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Scraping timed out")
			return nil, unexpected(fmt.Errorf("scraping timed out for %s: %w", url, pageCtx.Err()))
		}
		return nil, unexpected(fmt.Errorf("failed waiting for page load: %w", err))
	}

	tags := make(map[string]string, len(ogProperties))
	for _, property := range ogProperties {
		el, err := page.Sleeper(rod.NotFoundSleeper).Element(fmt.Sprintf(`meta[property=%q]`, property))
		if err != nil {
			continue
		}
		content, err := el.Attribute("content")
		if err != nil || content == nil {
			continue
		}
		tags[property] = *content
	}
	log.WithField("tags", len(tags)).Debug("Open Graph tags read")

	result, err = resultFromTags(tags, url)
	if err != nil {
		log.WithError(err).Info("Pin page has no media tags")
		return nil, err
	}
	log.WithField("type", result.Type).Info("Pin page scraped")
	return result, nil
}

func unexpected(cause error) *domain.ExtractionError {
	return &domain.ExtractionError{Message: domain.MsgUnexpectedError, Cause: cause}
}
