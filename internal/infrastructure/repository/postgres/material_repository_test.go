package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ratatutor/backend/internal/core/domain"
)

func TestGetMaterialLoadsAttachments(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM materials")).
		WithArgs("mat-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "title", "description", "status", "created_at", "updated_at",
		}).AddRow("mat-1", "user-1", "Cell Biology", "", "active", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM attachments")).
		WithArgs("mat-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "material_id", "filename", "storage_path", "extract_status", "extract_error", "created_at",
		}).AddRow("att-1", "mat-1", "chapter1.pdf", "att-1_chapter1.pdf", "ok", "", now))

	repo := NewMaterialRepository(db)
	material, err := repo.GetMaterial(context.Background(), "mat-1")
	if err != nil {
		t.Fatalf("GetMaterial: %v", err)
	}
	if material.Status != domain.MaterialActive {
		t.Fatalf("unexpected status %q", material.Status)
	}
	if len(material.Attachments) != 1 || material.Attachments[0].Filename != "chapter1.pdf" {
		t.Fatalf("attachments not loaded: %+v", material.Attachments)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMaterialNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM materials")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewMaterialRepository(db)
	_, err = repo.GetMaterial(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}

func TestUpdateAttachmentExtractStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attachments")).
		WithArgs("att-1", "failed", "password protected").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMaterialRepository(db)
	if err := repo.UpdateAttachmentExtractStatus(context.Background(), "att-1", domain.ExtractFailed, "password protected"); err != nil {
		t.Fatalf("UpdateAttachmentExtractStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
