package domain

import (
	"fmt"
	"time"
)

// ExampleURL is the sample pin offered by the "try example" action.
const ExampleURL = "https://pin.it/3WDQvZszP"

// DefaultTitle is shown when the API did not return a title for the pin.
const DefaultTitle = "Pinterest Media"

// MediaType tells whether a pin resolved to images or videos.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaURL is a single item of a pin gallery.
type MediaURL struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Metadata describes where the media came from.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
}

// DownloadResult is the payload returned by the extraction API.
// It is consumed as-is; the client never validates its internal shape.
type DownloadResult struct {
	Type         MediaType  `json:"type"`
	URLs         []MediaURL `json:"urls"`
	DownloadLink string     `json:"downloadLink"`
	Metadata     Metadata   `json:"metadata"`
}

// Title returns the pin title or DefaultTitle when the API sent none.
func (r DownloadResult) Title() string {
	if r.Metadata.Title != "" {
		return r.Metadata.Title
	}
	return DefaultTitle
}

// IsVideo reports whether the result holds video media.
func (r DownloadResult) IsVideo() bool {
	return r.Type == MediaVideo
}

// Extension is the file extension used when saving the media.
func (r DownloadResult) Extension() string {
	if r.IsVideo() {
		return "mp4"
	}
	return "jpg"
}

// SuggestedFileName builds the name a saved media file gets,
// e.g. pinterest-1718000000000.jpg.
func (r DownloadResult) SuggestedFileName(now time.Time) string {
	return fmt.Sprintf("pinterest-%d.%s", now.UnixMilli(), r.Extension())
}
