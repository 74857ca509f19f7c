package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ratatutor/backend/internal/core/domain"
)

func textMaterial(attachmentIDs ...string) *domain.Material {
	material := &domain.Material{ID: "mat-1", Title: "Cell Biology"}
	for _, id := range attachmentIDs {
		material.Attachments = append(material.Attachments, domain.Attachment{
			ID: id, MaterialID: "mat-1", Filename: id + ".txt",
		})
	}
	return material
}

func TestGatherConcatenatesAttachmentText(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"att-1": "hello",
		"att-2": "world",
	}}
	text := NewMaterialText(extractor, &fakeChunker{}, 2000, 3)

	got, err := text.Gather(context.Background(), textMaterial("att-1", "att-2"), nil)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if got != "hello\n\nworld" {
		t.Fatalf("unexpected combined text %q", got)
	}
}

func TestGatherFiltersByAttachmentID(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"att-1": "hello",
		"att-2": "world",
	}}
	text := NewMaterialText(extractor, &fakeChunker{}, 2000, 3)

	got, err := text.Gather(context.Background(), textMaterial("att-1", "att-2"), []string{"att-2"})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if got != "world" {
		t.Fatalf("filter not applied, got %q", got)
	}
}

func TestGatherNoAttachments(t *testing.T) {
	text := NewMaterialText(&fakeExtractor{}, &fakeChunker{}, 2000, 3)

	_, err := text.Gather(context.Background(), textMaterial(), nil)
	if !domain.IsKind(err, domain.ErrNoAttachments) {
		t.Fatalf("expected no-attachments kind, got %v", err)
	}
}

func TestGatherUnknownFilterIDs(t *testing.T) {
	text := NewMaterialText(&fakeExtractor{}, &fakeChunker{}, 2000, 3)

	_, err := text.Gather(context.Background(), textMaterial("att-1"), []string{"other"})
	if !domain.IsKind(err, domain.ErrNoAttachments) {
		t.Fatalf("expected no-attachments kind for unmatched filter, got %v", err)
	}
}

func TestGatherSkipsFailingAttachment(t *testing.T) {
	extractor := &fakeExtractor{
		texts: map[string]string{"att-2": "still readable"},
		errs:  map[string]error{"att-1": fmt.Errorf("corrupt zip")},
	}
	text := NewMaterialText(extractor, &fakeChunker{}, 2000, 3)

	got, err := text.Gather(context.Background(), textMaterial("att-1", "att-2"), nil)
	if err != nil {
		t.Fatalf("one failing attachment must not sink the batch: %v", err)
	}
	if got != "still readable" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestGatherAllEmpty(t *testing.T) {
	extractor := &fakeExtractor{
		texts: map[string]string{"att-1": "   ", "att-2": ""},
	}
	text := NewMaterialText(extractor, &fakeChunker{}, 2000, 3)

	_, err := text.Gather(context.Background(), textMaterial("att-1", "att-2"), nil)
	if !domain.IsKind(err, domain.ErrNoExtractableText) {
		t.Fatalf("expected no-extractable-text kind, got %v", err)
	}
}

func TestExcerptShortTextPassesWhole(t *testing.T) {
	text := NewMaterialText(&fakeExtractor{}, &fakeChunker{size: 10}, 50, 3)

	input := "short document"
	if got := text.Excerpt(input); got != input {
		t.Fatalf("short text must pass whole, got %q", got)
	}
}

func TestExcerptLongTextTakesFirstChunks(t *testing.T) {
	text := NewMaterialText(&fakeExtractor{}, &fakeChunker{size: 10}, 20, 3)

	input := strings.Repeat("a", 10) + strings.Repeat("b", 10) + strings.Repeat("c", 10) + strings.Repeat("d", 10)
	got := text.Excerpt(input)
	want := strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 10) + "\n" + strings.Repeat("c", 10)
	if got != want {
		t.Fatalf("excerpt mismatch:\n got %q\nwant %q", got, want)
	}
}
