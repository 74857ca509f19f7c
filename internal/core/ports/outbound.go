package ports

import (
	"context"
	"io"

	"github.com/ratatutor/backend/internal/core/domain"
)

// MaterialRepository persists materials and their attachment metadata.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, material *domain.Material) error
	GetMaterial(ctx context.Context, id string) (*domain.Material, error)
	AddAttachment(ctx context.Context, attachment *domain.Attachment) error
	GetAttachment(ctx context.Context, id string) (*domain.Attachment, error)
	UpdateAttachmentExtractStatus(ctx context.Context, id string, status domain.ExtractStatus, message string) error
}

// ConversationStore persists conversation state, one row per (user, material).
type ConversationStore interface {
	GetOrCreate(ctx context.Context, userID, materialID string) (*domain.Conversation, error)
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	Save(ctx context.Context, conversation *domain.Conversation) error
	// WithLocked runs fn while holding an exclusive row lock on the
	// conversation, serializing concurrent turns against the same thread.
	WithLocked(ctx context.Context, id string, fn func(ctx context.Context, conversation *domain.Conversation) error) error
}

// ContentStore persists generated study content. Implementations resolve
// title collisions within (material, kind) by deterministic suffixing.
type ContentStore interface {
	CreateNote(ctx context.Context, note *domain.Note) error
	CreateFlashcardSet(ctx context.Context, set *domain.FlashcardSet) error
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
}

// ObjectStorage stores attachment binaries.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries attachment upload events to the worker.
type MessageQueue interface {
	PublishAttachmentUploaded(ctx context.Context, attachmentID string) error
	SubscribeAttachmentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor converts a stored attachment into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, attachment domain.Attachment) (string, error)
}

// Chunker splits text into fixed-size chunks for excerpt selection.
type Chunker interface {
	Split(text string) []string
}

// ModelClient is the hosted chat-completion boundary.
type ModelClient interface {
	Complete(ctx context.Context, messages []domain.PromptMessage, maxTokens int) (string, error)
}
