package office

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates page text with newlines. Pages that yield no text
// (scanned images, vector-only pages) contribute nothing instead of failing
// the whole document.
func extractPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unreadable single page; the rest of the document still counts.
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return joinNonEmpty(pages, "\n"), nil
}
