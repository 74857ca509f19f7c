package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/core/ports"
)

const (
	defaultItemCount = 5
	maxItemCount     = 20
)

// GenerateUseCase is the shared engine behind note, flashcard and quiz
// generation: gather material text, prompt the model for structured JSON,
// unwrap/parse/validate the reply, repair the title, persist.
type GenerateUseCase struct {
	materials ports.MaterialRepository
	content   ports.ContentStore
	text      *MaterialText
	model     ports.ModelClient
	maxTokens int
}

func NewGenerateUseCase(
	materials ports.MaterialRepository,
	content ports.ContentStore,
	text *MaterialText,
	model ports.ModelClient,
	maxTokens int,
) *GenerateUseCase {
	return &GenerateUseCase{
		materials: materials,
		content:   content,
		text:      text,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (uc *GenerateUseCase) GenerateNotes(ctx context.Context, materialID string, attachmentIDs []string) (*domain.Note, error) {
	material, generated, err := uc.run(ctx, domain.KindNotes, materialID, 0, attachmentIDs)
	if err != nil {
		return nil, err
	}

	note := &domain.Note{
		ID:         uuid.NewString(),
		MaterialID: material.ID,
		Title:      generated.Title,
		Content:    generated.NoteContent,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.content.CreateNote(ctx, note); err != nil {
		return nil, domain.WrapError(domain.ErrGenerationFailed, "persist notes", err)
	}
	return note, nil
}

func (uc *GenerateUseCase) GenerateFlashcards(ctx context.Context, materialID string, count int, attachmentIDs []string) (*domain.FlashcardSet, error) {
	material, generated, err := uc.run(ctx, domain.KindFlashcards, materialID, clampCount(count), attachmentIDs)
	if err != nil {
		return nil, err
	}

	set := &domain.FlashcardSet{
		ID:          uuid.NewString(),
		MaterialID:  material.ID,
		Title:       generated.Title,
		Description: generated.Description,
		Cards:       make([]domain.Flashcard, len(generated.Cards)),
		CreatedAt:   time.Now().UTC(),
	}
	for i, card := range generated.Cards {
		set.Cards[i] = domain.Flashcard{
			ID:       uuid.NewString(),
			Question: card.Question,
			Answer:   card.Answer,
		}
	}
	if err := uc.content.CreateFlashcardSet(ctx, set); err != nil {
		return nil, domain.WrapError(domain.ErrGenerationFailed, "persist flashcards", err)
	}
	return set, nil
}

func (uc *GenerateUseCase) GenerateQuiz(ctx context.Context, materialID string, count int, attachmentIDs []string) (*domain.Quiz, error) {
	material, generated, err := uc.run(ctx, domain.KindQuiz, materialID, clampCount(count), attachmentIDs)
	if err != nil {
		return nil, err
	}

	quiz := &domain.Quiz{
		ID:          uuid.NewString(),
		MaterialID:  material.ID,
		Title:       generated.Title,
		Description: generated.Description,
		Questions:   make([]domain.QuizQuestion, len(generated.Questions)),
		CreatedAt:   time.Now().UTC(),
	}
	for i, question := range generated.Questions {
		question.ID = uuid.NewString()
		quiz.Questions[i] = question
	}
	if err := uc.content.CreateQuiz(ctx, quiz); err != nil {
		return nil, domain.WrapError(domain.ErrGenerationFailed, "persist quiz", err)
	}
	return quiz, nil
}

// run executes steps shared by all kinds. Gather errors (no attachments, no
// extractable text) pass through untouched so callers can tell "fix your
// files" apart from "the model misbehaved"; everything downstream rolls up
// into the generation-failed kind.
func (uc *GenerateUseCase) run(ctx context.Context, kind domain.ContentKind, materialID string, count int, attachmentIDs []string) (*domain.Material, *domain.GeneratedContent, error) {
	material, err := uc.materials.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, nil, fmt.Errorf("load material: %w", err)
	}

	text, err := uc.text.Gather(ctx, material, attachmentIDs)
	if err != nil {
		return nil, nil, err
	}

	var prompt string
	switch kind {
	case domain.KindNotes:
		prompt = buildNotesPrompt(text)
	case domain.KindFlashcards:
		prompt = buildFlashcardsPrompt(text, count)
	case domain.KindQuiz:
		prompt = buildQuizPrompt(text, count)
	default:
		return nil, nil, fmt.Errorf("unknown content kind: %s", kind)
	}

	raw, err := uc.model.Complete(ctx, []domain.PromptMessage{
		{Role: "system", Content: prompt},
	}, uc.maxTokens)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrGenerationFailed, string(kind)+" model call", err)
	}

	generated, err := parseGenerated(kind, raw)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrGenerationFailed, "validate "+string(kind), err)
	}

	generated.Title = repairTitle(kind, generated.Title, material.Title)
	return material, generated, nil
}

// repairTitle replaces empty or banned generic titles with a material-derived
// fallback.
func repairTitle(kind domain.ContentKind, title, materialTitle string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed != "" && !isGenericTitle(kind, trimmed) {
		return trimmed
	}
	return fmt.Sprintf("%s - %s", materialTitle, kind.Label())
}

func isGenericTitle(kind domain.ContentKind, title string) bool {
	for _, banned := range genericTitles[kind] {
		if strings.EqualFold(title, banned) {
			return true
		}
	}
	return false
}

func clampCount(count int) int {
	if count <= 0 {
		return defaultItemCount
	}
	if count > maxItemCount {
		return maxItemCount
	}
	return count
}
