package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"alfredoptarigan/cv-screener/internal/models"
)

// TextExtractor pulls plain text out of an uploaded document.
type TextExtractor interface {
	ExtractText(doc models.Document) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// ExtractText reads PDF and plain-text documents. Word documents are accepted
// by intake but have no extractor and yield ErrUnsupportedFormat.
func (p *textExtractor) ExtractText(doc models.Document) (string, error) {
	switch {
	case isPDF(doc):
		return extractPDFText(doc.Content)
	case strings.EqualFold(filepath.Ext(doc.FileName), ".txt"):
		if !utf8.Valid(doc.Content) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, doc.FileName)
		}
		text := CleanText(string(doc.Content))
		if text == "" {
			return "", fmt.Errorf("no text content found in %s", doc.FileName)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, doc.FileName)
	}
}

func isPDF(doc models.Document) bool {
	return strings.EqualFold(filepath.Ext(doc.FileName), ".pdf") || doc.MimeType == "application/pdf"
}

func extractPDFText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages are skipped
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := CleanText(textBuilder.String())
	if text == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}

	return text, nil
}

// CleanText trims every line and drops the empty ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleanedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
