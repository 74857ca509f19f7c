package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the single chat thread between a user and a material.
// At most one row exists per (user, material); the repository enforces it.
type Conversation struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	MaterialID string `json:"material_id"`

	Messages []Message `json:"messages"`

	// SummaryContext compresses messages older than the recent window so
	// prompts stay bounded as the thread grows.
	SummaryContext       string     `json:"summary_context"`
	MessagesSinceSummary int        `json:"messages_since_summary"`
	LastSummaryAt        *time.Time `json:"last_summary_at,omitempty"`

	// LegacyContext is the flat transcript kept for compatibility with the
	// pre-summary storage format. Written, never read back.
	LegacyContext string `json:"legacy_context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	recentWindow     = 4
	fullHistoryLimit = 6
	topicScanWindow  = 5
)

// AppendUserMessage appends a user turn. Blank input is rejected; a prompt
// identical to the current last message is suppressed so client retries do
// not duplicate turns.
func (c *Conversation) AppendUserMessage(text string, now time.Time) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return WrapError(ErrEmptyMessage, "append user message", fmt.Errorf("blank prompt"))
	}
	if n := len(c.Messages); n > 0 && c.Messages[n-1].Content == trimmed {
		return nil
	}
	c.appendMessage(Message{Role: RoleUser, Content: trimmed, Timestamp: now})
	return nil
}

// AppendAssistantMessage appends a model reply. Assistant turns are never
// deduplicated.
func (c *Conversation) AppendAssistantMessage(text string, now time.Time) {
	c.appendMessage(Message{Role: RoleAssistant, Content: strings.TrimSpace(text), Timestamp: now})
}

func (c *Conversation) appendMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.MessagesSinceSummary++
	c.LegacyContext += fmt.Sprintf("%s: %s\n", msg.Role, msg.Content)
	c.UpdatedAt = msg.Timestamp
}

// topicVocabularies is ordered; the first topic with the highest keyword
// count wins, so detection stays deterministic.
var topicVocabularies = []struct {
	Topic    string
	Keywords []string
}{
	{"flashcards", []string{"flashcard", "flash card", "card deck", "memorize", "recall practice"}},
	{"quiz", []string{"quiz", "multiple choice", "test me", "practice questions", "exam"}},
	{"notes", []string{"notes", "summarize", "summary", "outline", "key points"}},
	{"study", []string{"study", "learn", "review", "prepare", "revision"}},
	{"homework", []string{"homework", "assignment", "exercise", "problem set", "due"}},
}

// DetectTopic classifies the recent exchange by keyword frequency over the
// last few messages. Returns "general" when nothing matches.
func (c *Conversation) DetectTopic() string {
	window := c.Messages
	if len(window) > topicScanWindow {
		window = window[len(window)-topicScanWindow:]
	}

	var corpus strings.Builder
	for _, msg := range window {
		corpus.WriteString(strings.ToLower(msg.Content))
		corpus.WriteString("\n")
	}
	text := corpus.String()

	bestTopic := "general"
	bestHits := 0
	for _, vocab := range topicVocabularies {
		hits := 0
		for _, keyword := range vocab.Keywords {
			hits += strings.Count(text, keyword)
		}
		if hits > bestHits {
			bestHits = hits
			bestTopic = vocab.Topic
		}
	}
	return bestTopic
}

var materialReferenceKeywords = []string{
	"document", "the file", "file says", "attachment", "material",
	"according to", "in the pdf", "in the text", "uploaded", "the slides",
}

// ShouldIncludeMaterialContext reports whether the prompt warrants resending
// material excerpts: the material must have attachments and the prompt must
// actually reference them. Unrelated questions skip the large excerpt.
func (c *Conversation) ShouldIncludeMaterialContext(material *Material, prompt string) bool {
	if material == nil || len(material.Attachments) == 0 {
		return false
	}
	lowered := strings.ToLower(prompt)
	for _, keyword := range materialReferenceKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// ContextForModel renders the history under the token budget: short threads
// go whole, long ones collapse to the rolling summary plus the recent window.
func (c *Conversation) ContextForModel() string {
	if len(c.Messages) <= fullHistoryLimit {
		return formatMessages(c.Messages)
	}

	recent := c.Messages[len(c.Messages)-recentWindow:]
	if strings.TrimSpace(c.SummaryContext) == "" {
		return formatMessages(recent)
	}
	return "Summary of earlier discussion:\n" + c.SummaryContext + "\n\n" + formatMessages(recent)
}

func formatMessages(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

var complexityKeywords = []string{
	"explain", "elaborate", "clarify", "why", "how does",
	"difference", "compare", "in depth", "walk me through",
}

// SummaryThreshold adapts how often summaries fire: conceptually dense
// exchanges compress sooner.
func (c *Conversation) SummaryThreshold() int {
	window := c.Messages
	if len(window) > topicScanWindow {
		window = window[len(window)-topicScanWindow:]
	}

	hits := 0
	for _, msg := range window {
		lowered := strings.ToLower(msg.Content)
		for _, keyword := range complexityKeywords {
			hits += strings.Count(lowered, keyword)
		}
	}

	switch {
	case hits > 3:
		return 5
	case hits >= 1:
		return 6
	default:
		return 8
	}
}

// ShouldRegenerateSummary reports whether the rolling summary is stale.
func (c *Conversation) ShouldRegenerateSummary() bool {
	if strings.TrimSpace(c.SummaryContext) == "" {
		return true
	}
	return c.MessagesSinceSummary >= c.SummaryThreshold()
}

// MarkSummarized installs a fresh summary and resets the counter.
func (c *Conversation) MarkSummarized(summary string, now time.Time) {
	c.SummaryContext = strings.TrimSpace(summary)
	c.MessagesSinceSummary = 0
	c.LastSummaryAt = &now
	c.UpdatedAt = now
}
