package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ratatutor/backend/internal/core/domain"
)

type MaterialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) CreateMaterial(ctx context.Context, material *domain.Material) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO materials (id, owner_id, title, description, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, material.ID, material.OwnerID, material.Title, material.Description, string(material.Status), material.CreatedAt, material.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetMaterial loads the material row together with its attachment metadata.
func (r *MaterialRepository) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, description, status, created_at, updated_at
FROM materials
WHERE id = $1
`, id)

	var material domain.Material
	var status string
	err := row.Scan(
		&material.ID, &material.OwnerID, &material.Title, &material.Description,
		&status, &material.CreatedAt, &material.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get material", fmt.Errorf("material %s", id))
		}
		return nil, fmt.Errorf("scan material: %w", err)
	}
	material.Status = domain.MaterialStatus(status)

	attachments, err := r.listAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	material.Attachments = attachments
	return &material, nil
}

func (r *MaterialRepository) listAttachments(ctx context.Context, materialID string) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, material_id, filename, storage_path, extract_status, extract_error, created_at
FROM attachments
WHERE material_id = $1
ORDER BY created_at ASC, id ASC
`, materialID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var out []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		var status string
		if err := rows.Scan(
			&attachment.ID, &attachment.MaterialID, &attachment.Filename, &attachment.StoragePath,
			&status, &attachment.ExtractError, &attachment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachment.ExtractStatus = domain.ExtractStatus(status)
		out = append(out, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}

func (r *MaterialRepository) AddAttachment(ctx context.Context, attachment *domain.Attachment) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO attachments (id, material_id, filename, storage_path, extract_status, extract_error, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, attachment.ID, attachment.MaterialID, attachment.Filename, attachment.StoragePath,
		string(attachment.ExtractStatus), attachment.ExtractError, attachment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (r *MaterialRepository) GetAttachment(ctx context.Context, id string) (*domain.Attachment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, material_id, filename, storage_path, extract_status, extract_error, created_at
FROM attachments
WHERE id = $1
`, id)

	var attachment domain.Attachment
	var status string
	err := row.Scan(
		&attachment.ID, &attachment.MaterialID, &attachment.Filename, &attachment.StoragePath,
		&status, &attachment.ExtractError, &attachment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get attachment", fmt.Errorf("attachment %s", id))
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	attachment.ExtractStatus = domain.ExtractStatus(status)
	return &attachment, nil
}

func (r *MaterialRepository) UpdateAttachmentExtractStatus(ctx context.Context, id string, status domain.ExtractStatus, message string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE attachments
SET extract_status = $2, extract_error = $3
WHERE id = $1
`, id, string(status), message)
	if err != nil {
		return fmt.Errorf("update extract status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update extract status", fmt.Errorf("attachment %s", id))
	}
	return nil
}
