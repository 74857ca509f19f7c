package ports

import (
	"context"
	"io"

	"github.com/ratatutor/backend/internal/core/domain"
)

// MaterialService is the inbound contract for material and attachment intake.
type MaterialService interface {
	CreateMaterial(ctx context.Context, ownerID, title, description string) (*domain.Material, error)
	GetMaterial(ctx context.Context, id string) (*domain.Material, error)
	UploadAttachment(ctx context.Context, materialID, filename string, body io.Reader) (*domain.Attachment, error)
}

// TutorService is the inbound contract for conversational tutoring.
type TutorService interface {
	StartOrGetConversation(ctx context.Context, userID, materialID string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	Chat(ctx context.Context, conversationID, prompt string) (*domain.ChatResult, error)
	RegenerateSummary(ctx context.Context, conversationID string) (bool, error)
}

// GenerationService is the inbound contract for structured content generation.
type GenerationService interface {
	GenerateNotes(ctx context.Context, materialID string, attachmentIDs []string) (*domain.Note, error)
	GenerateFlashcards(ctx context.Context, materialID string, count int, attachmentIDs []string) (*domain.FlashcardSet, error)
	GenerateQuiz(ctx context.Context, materialID string, count int, attachmentIDs []string) (*domain.Quiz, error)
}

// AttachmentProcessor is the inbound contract for the worker pre-flight.
type AttachmentProcessor interface {
	PreflightByID(ctx context.Context, attachmentID string) error
}
