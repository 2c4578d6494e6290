// Package scraper resolves a pin by loading its page in a headless browser and
// reading the Open Graph tags, for when the extraction API is not wanted.
package scraper

import (
	"fmt"
	"strings"

	"pindl/internal/domain"
)

// ogProperties are the meta properties read from a pin page, in lookup order.
var ogProperties = []string{
	"og:video:secure_url",
	"og:video:url",
	"og:video",
	"og:image:secure_url",
	"og:image",
	"og:title",
	"og:description",
	"og:url",
}

// resultFromTags builds a DownloadResult from Open Graph properties.
// A video tag wins over an image tag; a page with neither is an extraction failure.
func resultFromTags(tags map[string]string, submitted string) (*domain.DownloadResult, error) {
	result := &domain.DownloadResult{
		Metadata: domain.Metadata{
			Title:  firstNonEmpty(tags["og:title"], tags["og:description"]),
			Source: firstNonEmpty(tags["og:url"], submitted),
		},
	}

	if video := firstNonEmpty(tags["og:video:secure_url"], tags["og:video:url"], tags["og:video"]); video != "" {
		result.Type = domain.MediaVideo
		result.URLs = []domain.MediaURL{{URL: video, Alt: result.Metadata.Title}}
		result.DownloadLink = video
		return result, nil
	}

	if image := firstNonEmpty(tags["og:image:secure_url"], tags["og:image"]); image != "" {
		result.Type = domain.MediaImage
		result.URLs = []domain.MediaURL{{URL: image, Alt: result.Metadata.Title}}
		result.DownloadLink = image
		return result, nil
	}

	return nil, &domain.ExtractionError{
		Message: domain.MsgExtractFailed,
		Cause:   fmt.Errorf("no og:image or og:video on %s", submitted),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
