package pdftext

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"studyguideai/internal/pdftext/pdftexttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, data []byte) (*Document, error) {
	t.Helper()
	return Extract(bytes.NewReader(data), int64(len(data)))
}

func TestExtractJoinsPages(t *testing.T) {
	data := pdftexttest.Build([]string{
		"Photosynthesis converts light energy into chemical energy",
		"Chlorophyll absorbs mostly blue and red light",
	})

	doc, err := extract(t, data)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.TotalPages)
	assert.Equal(t, 2, doc.ReadPages)

	lines := strings.Split(doc.Text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Photosynthesis converts light energy into chemical energy", lines[0])
	assert.Equal(t, "Chlorophyll absorbs mostly blue and red light", lines[1])
}

func TestExtractStopsAtMaxPages(t *testing.T) {
	pages := make([]string, MaxPages+5)
	for i := range pages {
		pages[i] = fmt.Sprintf("Page number %d of the long lecture notes", i+1)
	}

	doc, err := extract(t, pdftexttest.Build(pages))
	require.NoError(t, err)
	assert.Equal(t, MaxPages+5, doc.TotalPages)
	assert.Equal(t, MaxPages, doc.ReadPages)
	assert.Contains(t, doc.Text, "Page number 20 of")
	assert.NotContains(t, doc.Text, "Page number 21 of")
}

func TestExtractInsufficientText(t *testing.T) {
	_, err := extract(t, pdftexttest.Build([]string{"too short"}))
	assert.ErrorIs(t, err, ErrInsufficientText)
}

func TestExtractRejectsNonPDF(t *testing.T) {
	_, err := extract(t, []byte("hello, this is a plain text file and not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)
}
