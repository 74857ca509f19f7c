package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/core/ports"
)

const extractConcurrency = 4

// MaterialText aggregates extracted text across a material's attachments.
// Extraction is always on demand; nothing is cached.
type MaterialText struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker

	wholeDocLimit int
	excerptChunks int
}

func NewMaterialText(extractor ports.TextExtractor, chunker ports.Chunker, wholeDocLimit, excerptChunks int) *MaterialText {
	if wholeDocLimit <= 0 {
		wholeDocLimit = 2000
	}
	if excerptChunks <= 0 {
		excerptChunks = 3
	}
	return &MaterialText{
		extractor:     extractor,
		chunker:       chunker,
		wholeDocLimit: wholeDocLimit,
		excerptChunks: excerptChunks,
	}
}

// Gather extracts and concatenates text for the material's attachments,
// optionally restricted to attachmentIDs. Per-attachment extraction failures
// are logged and skipped; the operation fails only when no attachment
// matches or the combined result is empty.
func (m *MaterialText) Gather(ctx context.Context, material *domain.Material, attachmentIDs []string) (string, error) {
	selected := selectAttachments(material.Attachments, attachmentIDs)
	if len(selected) == 0 {
		return "", domain.WrapError(domain.ErrNoAttachments, "gather material text",
			fmt.Errorf("material %s: %d attachments, %d requested", material.ID, len(material.Attachments), len(attachmentIDs)))
	}

	texts := make([]string, len(selected))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(extractConcurrency)
	for i, attachment := range selected {
		group.Go(func() error {
			text, err := m.extractor.Extract(groupCtx, attachment)
			if err != nil {
				// Documented skip: one unreadable file must not sink the batch.
				slog.Warn("attachment_extract_skipped",
					"material_id", material.ID,
					"attachment_id", attachment.ID,
					"filename", attachment.Filename,
					"error", err,
				)
				return nil
			}
			texts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	combined := strings.TrimSpace(joinNonEmpty(texts, "\n\n"))
	if combined == "" {
		return "", domain.WrapError(domain.ErrNoExtractableText, "gather material text",
			fmt.Errorf("material %s yielded no text from %d attachments", material.ID, len(selected)))
	}
	return combined, nil
}

// Excerpt bounds material text for chat prompts. Short documents pass whole;
// long ones are cut to the first few fixed-size chunks. This is deterministic
// truncation, not relevance retrieval — a known limitation.
func (m *MaterialText) Excerpt(text string) string {
	if len(text) <= m.wholeDocLimit {
		return text
	}
	chunks := m.chunker.Split(text)
	if len(chunks) > m.excerptChunks {
		chunks = chunks[:m.excerptChunks]
	}
	return strings.Join(chunks, "\n")
}

func selectAttachments(attachments []domain.Attachment, ids []string) []domain.Attachment {
	if len(ids) == 0 {
		return attachments
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]domain.Attachment, 0, len(ids))
	for _, attachment := range attachments {
		if wanted[attachment.ID] {
			selected = append(selected, attachment)
		}
	}
	return selected
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
