package usecase

import (
	"fmt"
	"strings"

	"github.com/ratatutor/backend/internal/core/domain"
)

const baseTutorPrompt = `You are a patient study tutor. Ground every answer in the student's material when it is provided, admit when the material does not cover a question, and keep answers focused and concrete.`

var topicGuidance = map[string]string{
	"flashcards": "The student is working with flashcards. Prefer short question/answer formulations they could lift onto a card.",
	"quiz":       "The student is preparing for a quiz. Where helpful, check their understanding with a follow-up question.",
	"notes":      "The student is organizing notes. Structure answers with short headings or bullet points.",
	"study":      "The student is in a study session. Explain step by step and connect new points to what was already discussed.",
	"homework":   "The student is doing an assignment. Guide them toward the answer instead of handing it over outright.",
}

func buildChatSystemPrompt(topic, materialTitle string) string {
	var b strings.Builder
	b.WriteString(baseTutorPrompt)
	if guidance, ok := topicGuidance[topic]; ok {
		b.WriteString("\n")
		b.WriteString(guidance)
	}
	if materialTitle != "" {
		fmt.Fprintf(&b, "\nThe conversation is attached to the study material %q.", materialTitle)
	}
	return b.String()
}

// buildChatPayload assembles the labeled user-turn sections: optional
// material excerpt, windowed history, then the literal prompt.
func buildChatPayload(materialExcerpt, conversationContext, prompt string) string {
	sections := make([]string, 0, 3)
	if materialExcerpt != "" {
		sections = append(sections, "Material excerpt:\n"+materialExcerpt)
	}
	if conversationContext != "" {
		sections = append(sections, "Conversation so far:\n"+conversationContext)
	}
	sections = append(sections, "Student's question:\n"+prompt)
	return strings.Join(sections, "\n\n")
}

const summaryWordLimit = 200

func buildSummaryPrompt(previousSummary string, messages []domain.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, content))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Summarize the tutoring conversation below in under %d words.
Keep the student's goals, concepts covered, open questions, and agreed next steps.
Return plain prose, no preamble.`, summaryWordLimit)
	if strings.TrimSpace(previousSummary) != "" {
		b.WriteString("\n\nMerge with the existing summary:\n")
		b.WriteString(previousSummary)
	}
	b.WriteString("\n\nConversation:\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// genericTitles lists banned non-specific titles per kind; comparisons are
// case-insensitive. A generated title on this list gets repaired to
// "{material title} - {kind label}".
var genericTitles = map[domain.ContentKind][]string{
	domain.KindNotes:      {"notes", "study notes", "study guide", "summary"},
	domain.KindFlashcards: {"flashcards", "flashcard set", "study cards", "study guide"},
	domain.KindQuiz:       {"quiz", "practice quiz", "test", "study guide"},
}

func buildNotesPrompt(materialText string) string {
	return fmt.Sprintf(`Create comprehensive study notes from the material below.

Requirements:
- "title" must be specific to the material's actual content. Banned titles: "Notes", "Study Notes", "Study Guide", "Summary".
- "content" is a single markdown document covering the key concepts, definitions, and examples.
- Respond with raw JSON only, no markdown fences, exactly this shape:
{"title": "Photosynthesis: Light Reactions and the Calvin Cycle", "description": "one sentence", "content": "# Heading\n..."}

Material:
%s`, materialText)
}

func buildFlashcardsPrompt(materialText string, count int) string {
	return fmt.Sprintf(`Create exactly %d flashcards from the material below.

Requirements:
- "title" must be specific to the material's actual content. Banned titles: "Flashcards", "Flashcard Set", "Study Cards", "Study Guide".
- Every card needs a non-empty "question" and "answer".
- Respond with raw JSON only, no markdown fences, exactly this shape:
{"title": "French Revolution Key Dates", "description": "one sentence", "flashcards": [{"question": "...", "answer": "..."}]}

Material:
%s`, count, materialText)
}

func buildQuizPrompt(materialText string, count int) string {
	return fmt.Sprintf(`Create a multiple-choice quiz with exactly %d questions from the material below.

Requirements:
- "title" must be specific to the material's actual content. Banned titles: "Quiz", "Practice Quiz", "Test", "Study Guide".
- Every question needs "question_text", a "choices" list with at least 2 entries, and "correct_answer".
- "correct_answer" must be the full text of one of the choices, never a letter.
- Respond with raw JSON only, no markdown fences, exactly this shape:
{"title": "Cell Division Checkpoint Quiz", "description": "one sentence", "questions": [{"question_text": "...", "choices": ["...", "..."], "correct_answer": "..."}]}

Material:
%s`, count, materialText)
}
