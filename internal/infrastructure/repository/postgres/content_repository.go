package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ratatutor/backend/internal/core/domain"
)

// maxTitleAttempts bounds the collision-suffix loop. Hitting it means dozens
// of identically named items under one material, which is a caller bug.
const maxTitleAttempts = 50

type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// CreateNote inserts the note, suffixing the title with " (2)", " (3)" and so
// on until it is unique within the material. The unique index arbitrates
// races; each collision just advances the suffix.
func (r *ContentRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	base := note.Title
	for attempt := 1; attempt <= maxTitleAttempts; attempt++ {
		note.Title = titleWithSuffix(base, attempt)
		_, err := r.db.ExecContext(ctx, `
INSERT INTO notes (id, material_id, title, content, created_at)
VALUES ($1,$2,$3,$4,$5)
`, note.ID, note.MaterialID, note.Title, note.Content, note.CreatedAt)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("insert note: %w", err)
		}
	}
	return fmt.Errorf("insert note: no free title for %q", base)
}

func (r *ContentRepository) CreateFlashcardSet(ctx context.Context, set *domain.FlashcardSet) error {
	base := set.Title
	for attempt := 1; attempt <= maxTitleAttempts; attempt++ {
		set.Title = titleWithSuffix(base, attempt)
		err := r.insertFlashcardSet(ctx, set)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("insert flashcard set: no free title for %q", base)
}

func (r *ContentRepository) insertFlashcardSet(ctx context.Context, set *domain.FlashcardSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flashcard tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO flashcard_sets (id, material_id, title, description, created_at)
VALUES ($1,$2,$3,$4,$5)
`, set.ID, set.MaterialID, set.Title, set.Description, set.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert flashcard set: %w", err)
	}

	for i, card := range set.Cards {
		_, err = tx.ExecContext(ctx, `
INSERT INTO flashcards (id, set_id, position, question, answer)
VALUES ($1,$2,$3,$4,$5)
`, card.ID, set.ID, i, card.Question, card.Answer)
		if err != nil {
			return fmt.Errorf("insert flashcard %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flashcard tx: %w", err)
	}
	return nil
}

func (r *ContentRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	base := quiz.Title
	for attempt := 1; attempt <= maxTitleAttempts; attempt++ {
		quiz.Title = titleWithSuffix(base, attempt)
		err := r.insertQuiz(ctx, quiz)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("insert quiz: no free title for %q", base)
}

func (r *ContentRepository) insertQuiz(ctx context.Context, quiz *domain.Quiz) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quiz tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO quizzes (id, material_id, title, description, created_at)
VALUES ($1,$2,$3,$4,$5)
`, quiz.ID, quiz.MaterialID, quiz.Title, quiz.Description, quiz.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert quiz: %w", err)
	}

	for i, question := range quiz.Questions {
		choicesJSON, err := json.Marshal(question.Choices)
		if err != nil {
			return fmt.Errorf("marshal choices: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO quiz_questions (id, quiz_id, position, question_text, choices, correct_answer)
VALUES ($1,$2,$3,$4,$5,$6)
`, question.ID, quiz.ID, i, question.QuestionText, choicesJSON, question.CorrectAnswer)
		if err != nil {
			return fmt.Errorf("insert quiz question %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quiz tx: %w", err)
	}
	return nil
}

func titleWithSuffix(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s (%d)", base, attempt)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
