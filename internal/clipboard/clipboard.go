// Package clipboard backs the copy-link and share actions.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"pindl/internal/domain"
)

// ErrUnsupported is returned when no system clipboard is reachable (e.g. no xsel/xclip).
var ErrUnsupported = errors.New("clipboard unavailable")

// Writer puts text on a clipboard.
type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard.
type System struct{}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// CopyLink copies the canonical download link.
func CopyLink(w Writer, result *domain.DownloadResult) (string, error) {
	return result.DownloadLink, w.WriteAll(result.DownloadLink)
}

// Share copies the original pin URL. A terminal has no share sheet, so sharing means copying the source.
func Share(w Writer, result *domain.DownloadResult) (string, error) {
	return result.Metadata.Source, w.WriteAll(result.Metadata.Source)
}
