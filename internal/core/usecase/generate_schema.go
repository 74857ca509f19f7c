package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ratatutor/backend/internal/core/domain"
)

// Wire shapes for model output. Field pairs tolerate the snake_case the
// prompt asks for and the camelCase models drift into.
type wireFlashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type wireQuestion struct {
	QuestionText     string   `json:"question_text"`
	QuestionTextAlt  string   `json:"questionText"`
	Choices          []string `json:"choices"`
	CorrectAnswer    string   `json:"correct_answer"`
	CorrectAnswerAlt string   `json:"correctAnswer"`
}

type wirePayload struct {
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description"`
	Content     string          `json:"content"`
	Flashcards  []wireFlashcard `json:"flashcards"`
	Questions   []wireQuestion  `json:"questions"`
}

// parseGenerated unwraps, parses, and validates one model reply into a
// GeneratedContent. Parse errors surface a truncated raw excerpt.
func parseGenerated(kind domain.ContentKind, raw string) (*domain.GeneratedContent, error) {
	var payload wirePayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedAIOutput, "parse model json",
			fmt.Errorf("%w; reply excerpt: %s", err, rawExcerpt(raw)))
	}

	result := &domain.GeneratedContent{
		Kind:        kind,
		Title:       strings.TrimSpace(payload.Title),
		Description: descriptionString(payload.Description),
	}
	if result.Title == "" {
		return nil, domain.WrapError(domain.ErrMalformedAIOutput, "validate model json",
			fmt.Errorf("missing or empty title"))
	}

	switch kind {
	case domain.KindNotes:
		result.NoteContent = strings.TrimSpace(payload.Content)
		if result.NoteContent == "" {
			return nil, domain.WrapError(domain.ErrMalformedAIOutput, "validate notes",
				fmt.Errorf("missing or empty content"))
		}
	case domain.KindFlashcards:
		cards, err := validateFlashcards(payload.Flashcards)
		if err != nil {
			return nil, err
		}
		result.Cards = cards
	case domain.KindQuiz:
		questions, err := validateQuestions(payload.Questions)
		if err != nil {
			return nil, err
		}
		result.Questions = questions
	default:
		return nil, fmt.Errorf("unknown content kind: %s", kind)
	}
	return result, nil
}

// descriptionString defaults to "" when the field is missing or not a string.
func descriptionString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func validateFlashcards(cards []wireFlashcard) ([]domain.Flashcard, error) {
	if len(cards) == 0 {
		return nil, domain.WrapError(domain.ErrMalformedAIOutput, "validate flashcards",
			fmt.Errorf("empty flashcards list"))
	}
	out := make([]domain.Flashcard, 0, len(cards))
	for i, card := range cards {
		question := strings.TrimSpace(card.Question)
		answer := strings.TrimSpace(card.Answer)
		if question == "" || answer == "" {
			return nil, domain.WrapError(domain.ErrMalformedQuestion, "validate flashcards",
				fmt.Errorf("card %d has an empty question or answer", i))
		}
		out = append(out, domain.Flashcard{Question: question, Answer: answer})
	}
	return out, nil
}

func validateQuestions(questions []wireQuestion) ([]domain.QuizQuestion, error) {
	if len(questions) == 0 {
		return nil, domain.WrapError(domain.ErrMalformedAIOutput, "validate quiz",
			fmt.Errorf("empty questions list"))
	}
	out := make([]domain.QuizQuestion, 0, len(questions))
	for i, question := range questions {
		text := strings.TrimSpace(coalesce(question.QuestionText, question.QuestionTextAlt))
		if text == "" {
			return nil, domain.WrapError(domain.ErrMalformedQuestion, "validate quiz",
				fmt.Errorf("question %d has empty text", i))
		}

		choices := make([]string, 0, len(question.Choices))
		for _, choice := range question.Choices {
			if trimmed := strings.TrimSpace(choice); trimmed != "" {
				choices = append(choices, trimmed)
			}
		}
		if len(choices) < 2 {
			return nil, domain.WrapError(domain.ErrMalformedQuestion, "validate quiz",
				fmt.Errorf("question %d has %d usable choices, need at least 2", i, len(choices)))
		}

		answer, err := reconcileAnswer(coalesce(question.CorrectAnswer, question.CorrectAnswerAlt), choices)
		if err != nil {
			return nil, domain.WrapError(domain.ErrAnswerNotInChoices, "validate quiz",
				fmt.Errorf("question %d: %w", i, err))
		}

		out = append(out, domain.QuizQuestion{
			QuestionText:  text,
			Choices:       choices,
			CorrectAnswer: answer,
		})
	}
	return out, nil
}

// reconcileAnswer maps the model's correct_answer onto a choice. Models
// inconsistently return option letters, exact text, or sloppily-cased text;
// each form is tolerated in that order.
func reconcileAnswer(raw string, choices []string) (string, error) {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", fmt.Errorf("empty correct answer")
	}

	if len(answer) == 1 {
		letter := strings.ToUpper(answer)[0]
		if letter >= 'A' && letter <= 'F' {
			if idx := int(letter - 'A'); idx < len(choices) {
				return choices[idx], nil
			}
		}
	}

	for _, choice := range choices {
		if choice == answer {
			return choice, nil
		}
	}
	for _, choice := range choices {
		if strings.EqualFold(strings.TrimSpace(choice), answer) {
			return choice, nil
		}
	}
	return "", fmt.Errorf("answer %q does not match any choice", answer)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
