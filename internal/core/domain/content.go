package domain

import "time"

// ContentKind selects which generation pipeline variant runs.
type ContentKind string

const (
	KindNotes      ContentKind = "notes"
	KindFlashcards ContentKind = "flashcards"
	KindQuiz       ContentKind = "quiz"
)

// Label returns the human-readable suffix used for repaired titles.
func (k ContentKind) Label() string {
	switch k {
	case KindNotes:
		return "Notes"
	case KindFlashcards:
		return "Flashcards"
	case KindQuiz:
		return "Quiz"
	default:
		return "Generated"
	}
}

type Note struct {
	ID         string    `json:"id"`
	MaterialID string    `json:"material_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type Flashcard struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FlashcardSet struct {
	ID          string      `json:"id"`
	MaterialID  string      `json:"material_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Cards       []Flashcard `json:"cards"`
	CreatedAt   time.Time   `json:"created_at"`
}

type QuizQuestion struct {
	ID            string   `json:"id"`
	QuestionText  string   `json:"question_text"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer"`
}

type Quiz struct {
	ID          string         `json:"id"`
	MaterialID  string         `json:"material_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []QuizQuestion `json:"questions"`
	CreatedAt   time.Time      `json:"created_at"`
}

// GeneratedContent is the transient, validated result of one generation run
// before it is persisted as a Note, FlashcardSet or Quiz.
type GeneratedContent struct {
	Kind        ContentKind
	Title       string
	Description string

	NoteContent string
	Cards       []Flashcard
	Questions   []QuizQuestion
}
