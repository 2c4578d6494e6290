package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pindl/internal/domain"
)

type memWriter struct {
	text string
	err  error
}

func (m *memWriter) WriteAll(text string) error {
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

func TestCopyLinkAndShare(t *testing.T) {
	result := &domain.DownloadResult{
		DownloadLink: "https://img/1.jpg",
		Metadata:     domain.Metadata{Source: "https://pin.it/3WDQvZszP"},
	}
	w := &memWriter{}

	copied, err := CopyLink(w, result)
	assert.NoError(t, err)
	assert.Equal(t, "https://img/1.jpg", copied)
	assert.Equal(t, "https://img/1.jpg", w.text)

	shared, err := Share(w, result)
	assert.NoError(t, err)
	assert.Equal(t, "https://pin.it/3WDQvZszP", shared)
	assert.Equal(t, "https://pin.it/3WDQvZszP", w.text)

	w.err = errors.New("no display")
	_, err = CopyLink(w, result)
	assert.Error(t, err)
}
