package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/core/ports"
)

// MaterialUseCase handles material creation and attachment intake. Uploads
// land in object storage, get an attachment row, and emit a queue event for
// the worker's extraction pre-flight.
type MaterialUseCase struct {
	materials ports.MaterialRepository
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
}

func NewMaterialUseCase(
	materials ports.MaterialRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *MaterialUseCase {
	return &MaterialUseCase{
		materials: materials,
		storage:   storage,
		queue:     queue,
	}
}

func (uc *MaterialUseCase) CreateMaterial(ctx context.Context, ownerID, title, description string) (*domain.Material, error) {
	title = strings.TrimSpace(title)
	if strings.TrimSpace(ownerID) == "" || title == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create material",
			fmt.Errorf("owner id and title are required"))
	}

	now := time.Now().UTC()
	material := &domain.Material{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.MaterialActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.materials.CreateMaterial(ctx, material); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	return material, nil
}

func (uc *MaterialUseCase) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	return uc.materials.GetMaterial(ctx, id)
}

func (uc *MaterialUseCase) UploadAttachment(ctx context.Context, materialID, filename string, body io.Reader) (*domain.Attachment, error) {
	material, err := uc.materials.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("load material: %w", err)
	}

	id := uuid.NewString()
	attachment := &domain.Attachment{
		ID:            id,
		MaterialID:    material.ID,
		Filename:      filename,
		StoragePath:   fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)),
		ExtractStatus: domain.ExtractPending,
		CreatedAt:     time.Now().UTC(),
	}
	if !domain.SupportedFormats[attachment.Extension()] {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload attachment",
			fmt.Errorf("extension %q of %s", attachment.Extension(), filename))
	}

	if err := uc.storage.Save(ctx, attachment.StoragePath, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if err := uc.materials.AddAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("create attachment row: %w", err)
	}
	if err := uc.queue.PublishAttachmentUploaded(ctx, attachment.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}
	return attachment, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "attachment.bin"
	}
	return base
}
