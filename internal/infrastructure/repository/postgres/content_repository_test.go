package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ratatutor/backend/internal/core/domain"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "notes_material_id_title_key"}
}

func TestCreateNoteKeepsFreeTitle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	note := &domain.Note{ID: "note-1", MaterialID: "mat-1", Title: "Cell Biology Overview", Content: "...", CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs("note-1", "mat-1", "Cell Biology Overview", "...", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewContentRepository(db)
	if err := repo.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.Title != "Cell Biology Overview" {
		t.Fatalf("title changed without collision: %q", note.Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateNoteSuffixesOnCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	note := &domain.Note{ID: "note-2", MaterialID: "mat-1", Title: "Cell Biology Overview", Content: "...", CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs("note-2", "mat-1", "Cell Biology Overview", "...", now).
		WillReturnError(uniqueViolation())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs("note-2", "mat-1", "Cell Biology Overview (2)", "...", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewContentRepository(db)
	if err := repo.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.Title != "Cell Biology Overview (2)" {
		t.Fatalf("expected suffixed title, got %q", note.Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateQuizRetriesWholeTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	quiz := &domain.Quiz{
		ID:         "quiz-1",
		MaterialID: "mat-1",
		Title:      "Chapter Quiz",
		Questions: []domain.QuizQuestion{
			{ID: "q-1", QuestionText: "Capital of France?", Choices: []string{"Paris", "London"}, CorrectAnswer: "Paris"},
		},
		CreatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quizzes")).
		WithArgs("quiz-1", "mat-1", "Chapter Quiz", "", now).
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quizzes")).
		WithArgs("quiz-1", "mat-1", "Chapter Quiz (2)", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quiz_questions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewContentRepository(db)
	if err := repo.CreateQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if quiz.Title != "Chapter Quiz (2)" {
		t.Fatalf("expected suffixed title, got %q", quiz.Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateFlashcardSetInsertsCardsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	set := &domain.FlashcardSet{
		ID:         "set-1",
		MaterialID: "mat-1",
		Title:      "Vocabulary",
		Cards: []domain.Flashcard{
			{ID: "c-1", Question: "Mitochondria?", Answer: "Powerhouse of the cell"},
			{ID: "c-2", Question: "Ribosome?", Answer: "Protein synthesis"},
		},
		CreatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flashcard_sets")).
		WithArgs("set-1", "mat-1", "Vocabulary", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flashcards")).
		WithArgs("c-1", "set-1", 0, "Mitochondria?", "Powerhouse of the cell").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flashcards")).
		WithArgs("c-2", "set-1", 1, "Ribosome?", "Protein synthesis").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewContentRepository(db)
	if err := repo.CreateFlashcardSet(context.Background(), set); err != nil {
		t.Fatalf("CreateFlashcardSet: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
