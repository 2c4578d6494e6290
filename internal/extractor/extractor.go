// Package extractor resolves a Pinterest URL into downloadable media through the extraction API.
package extractor

import (
	"context"

	"pindl/internal/domain"
)

// Extractor defines the interface for turning a submitted URL into media.
type Extractor interface {
	// Extract resolves rawURL. Blank input fails with a *domain.ValidationError
	// before any network activity; every other failure is a *domain.ExtractionError.
	Extract(ctx context.Context, rawURL string) (*domain.DownloadResult, error)
}
