// Package office extracts plain text from uploaded study documents,
// dispatching on the attachment's file extension.
package office

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract converts a stored attachment into plain text. Extensions outside
// the supported set fail with the unsupported-format kind; unreadable or
// corrupt files fail with the extraction kind so callers can skip them and
// continue with the rest of the batch.
func (e *Extractor) Extract(ctx context.Context, attachment domain.Attachment) (string, error) {
	ext := attachment.Extension()
	if !domain.SupportedFormats[ext] {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract",
			fmt.Errorf("extension %q of %s", ext, attachment.Filename))
	}

	raw, err := e.readAll(ctx, attachment.StoragePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract", err)
	}

	var text string
	switch ext {
	case "pdf":
		text, err = extractPDF(raw)
	case "docx":
		text, err = extractDOCX(raw)
	case "pptx":
		text, err = extractPPTX(raw)
	case "txt":
		text, err = extractTXT(raw)
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract "+ext, err)
	}
	return text, nil
}

func (e *Extractor) readAll(ctx context.Context, key string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return raw, nil
}

func extractTXT(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("file is not valid utf-8 text")
	}
	return string(raw), nil
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
