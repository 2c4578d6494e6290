package scraper

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindl/internal/domain"
)

func TestResultFromTags_Image(t *testing.T) {
	tags := map[string]string{
		"og:image": "https://i.pinimg.com/originals/aa/bb.jpg",
		"og:title": " Cozy reading nook ",
		"og:url":   "https://www.pinterest.com/pin/123/",
	}

	result, err := resultFromTags(tags, "https://pin.it/3WDQvZszP")
	require.NoError(t, err)
	assert.Equal(t, domain.MediaImage, result.Type)
	assert.Equal(t, "https://i.pinimg.com/originals/aa/bb.jpg", result.DownloadLink)
	require.Len(t, result.URLs, 1)
	assert.Equal(t, "Cozy reading nook", result.URLs[0].Alt)
	assert.Equal(t, "Cozy reading nook", result.Metadata.Title)
	assert.Equal(t, "https://www.pinterest.com/pin/123/", result.Metadata.Source)
}

func TestResultFromTags_VideoWins(t *testing.T) {
	tags := map[string]string{
		"og:image":     "https://i.pinimg.com/thumb.jpg",
		"og:video:url": "https://v.pinimg.com/clip.mp4",
	}

	result, err := resultFromTags(tags, "https://pin.it/x")
	require.NoError(t, err)
	assert.Equal(t, domain.MediaVideo, result.Type)
	assert.Equal(t, "https://v.pinimg.com/clip.mp4", result.DownloadLink)
	assert.Equal(t, "https://pin.it/x", result.Metadata.Source, "falls back to the submitted url")
	assert.Equal(t, domain.DefaultTitle, result.Title())
}

func TestResultFromTags_NoMedia(t *testing.T) {
	_, err := resultFromTags(map[string]string{"og:title": "Login"}, "https://pin.it/x")

	var ee *domain.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, domain.MsgExtractFailed, ee.Message)
}

func TestPageExtractor_BlankInput(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := NewPageExtractor(log).Extract(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyURL)
}
