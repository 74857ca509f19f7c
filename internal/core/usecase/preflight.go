package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/core/ports"
)

// PreflightUseCase runs the worker-side extraction check after an upload.
// The result is advisory metadata on the attachment row — chat and
// generation still extract on demand — but it lets the UI flag unreadable
// files right after upload instead of at first use.
type PreflightUseCase struct {
	materials ports.MaterialRepository
	extractor ports.TextExtractor
}

func NewPreflightUseCase(materials ports.MaterialRepository, extractor ports.TextExtractor) *PreflightUseCase {
	return &PreflightUseCase{
		materials: materials,
		extractor: extractor,
	}
}

func (uc *PreflightUseCase) PreflightByID(ctx context.Context, attachmentID string) error {
	attachment, err := uc.materials.GetAttachment(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("load attachment: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, *attachment)
	status := domain.ExtractOK
	message := ""
	switch {
	case err != nil:
		status = domain.ExtractFailed
		message = err.Error()
	case strings.TrimSpace(text) == "":
		status = domain.ExtractEmpty
	}

	if err := uc.materials.UpdateAttachmentExtractStatus(ctx, attachmentID, status, message); err != nil {
		return fmt.Errorf("record extract status: %w", err)
	}
	return nil
}
