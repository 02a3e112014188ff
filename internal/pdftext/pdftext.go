// Package pdftext extracts plain text from uploaded PDF documents.
package pdftext

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxPages is how many leading pages are read from a document.
	MaxPages = 20
	// MinChars is the least extracted text a document must yield.
	MinChars = 50
)

var (
	ErrNotPDF           = errors.New("file is not a readable PDF")
	ErrInsufficientText = errors.New("Could not extract enough text from this PDF.")
)

// Document is the text extracted from a PDF.
type Document struct {
	Text       string `json:"-"`
	TotalPages int    `json:"total_pages"`
	ReadPages  int    `json:"read_pages"`
	Chars      int    `json:"chars"`
}

// Extract reads the first MaxPages pages of the PDF in r. Each page's text is
// collapsed to single spaces and pages are joined with newlines.
func Extract(r io.ReaderAt, size int64) (doc *Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	total := reader.NumPage()
	limit := min(total, MaxPages)

	pages := make([]string, 0, limit)
	for i := 1; i <= limit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			pages = append(pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("WARN: Failed to read text of PDF page %d: %v", i, err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.Join(strings.Fields(content), " "))
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	chars := utf8.RuneCountInString(text)
	if chars < MinChars {
		return nil, ErrInsufficientText
	}

	log.Printf("INFO: Extracted %d characters from %d of %d PDF pages", chars, limit, total)
	return &Document{Text: text, TotalPages: total, ReadPages: limit, Chars: chars}, nil
}
