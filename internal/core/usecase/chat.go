package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/core/ports"
)

// TutorUseCase orchestrates chat turns: context assembly, the model call
// with its two-stage degrade, and rolling-summary maintenance.
type TutorUseCase struct {
	conversations ports.ConversationStore
	materials     ports.MaterialRepository
	text          *MaterialText
	model         ports.ModelClient
	maxTokens     int
	now           func() time.Time
}

func NewTutorUseCase(
	conversations ports.ConversationStore,
	materials ports.MaterialRepository,
	text *MaterialText,
	model ports.ModelClient,
	maxTokens int,
) *TutorUseCase {
	return &TutorUseCase{
		conversations: conversations,
		materials:     materials,
		text:          text,
		model:         model,
		maxTokens:     maxTokens,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (uc *TutorUseCase) StartOrGetConversation(ctx context.Context, userID, materialID string) (*domain.Conversation, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(materialID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start conversation",
			fmt.Errorf("user id and material id are required"))
	}
	if _, err := uc.materials.GetMaterial(ctx, materialID); err != nil {
		return nil, fmt.Errorf("load material: %w", err)
	}
	conversation, err := uc.conversations.GetOrCreate(ctx, userID, materialID)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}
	return conversation, nil
}

func (uc *TutorUseCase) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	return uc.conversations.GetByID(ctx, id)
}

// Chat runs one tutoring turn under the conversation's row lock. The user
// message is committed even when the model call fails; the assistant reply
// is only appended on success.
func (uc *TutorUseCase) Chat(ctx context.Context, conversationID, prompt string) (*domain.ChatResult, error) {
	var result *domain.ChatResult
	var turnErr error

	err := uc.conversations.WithLocked(ctx, conversationID, func(ctx context.Context, conversation *domain.Conversation) error {
		result, turnErr = uc.chatTurn(ctx, conversation, prompt)
		if turnErr != nil && !isModelFailure(turnErr) {
			return turnErr
		}
		// Model failures still commit the recorded user message.
		return uc.conversations.Save(ctx, conversation)
	})
	if err != nil {
		return nil, err
	}
	if turnErr != nil {
		return nil, turnErr
	}
	return result, nil
}

func isModelFailure(err error) bool {
	return domain.IsKind(err, domain.ErrAIService) || domain.IsKind(err, domain.ErrAIServiceTimeout)
}

func (uc *TutorUseCase) chatTurn(ctx context.Context, conversation *domain.Conversation, prompt string) (*domain.ChatResult, error) {
	prompt = strings.TrimSpace(prompt)

	// History window is captured before the new prompt lands so the prompt
	// appears once in the payload, as its own labeled section.
	historyContext := conversation.ContextForModel()

	if err := conversation.AppendUserMessage(prompt, uc.now()); err != nil {
		return nil, err
	}

	material, err := uc.materials.GetMaterial(ctx, conversation.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("load material: %w", err)
	}

	topic := conversation.DetectTopic()
	systemPrompt := buildChatSystemPrompt(topic, material.Title)

	excerpt := ""
	includeMaterial := conversation.ShouldIncludeMaterialContext(material, prompt)
	if includeMaterial {
		gathered, gatherErr := uc.text.Gather(ctx, material, nil)
		if gatherErr != nil {
			// Material with nothing readable degrades to a plain chat turn.
			slog.Warn("chat_material_text_unavailable",
				"conversation_id", conversation.ID,
				"material_id", material.ID,
				"error", gatherErr,
			)
			includeMaterial = false
		} else {
			excerpt = uc.text.Excerpt(gathered)
		}
	}

	reply, degraded, err := uc.completeWithFallback(ctx, systemPrompt, excerpt, historyContext, prompt, material)
	if err != nil {
		return nil, err
	}

	conversation.AppendAssistantMessage(reply, uc.now())
	summaryRefreshed := uc.refreshSummary(ctx, conversation)

	return &domain.ChatResult{
		Conversation:     conversation,
		Reply:            reply,
		Topic:            topic,
		UsedMaterialText: includeMaterial,
		Degraded:         degraded,
		SummaryRefreshed: summaryRefreshed,
	}, nil
}

// completeWithFallback tries the full payload first, then material text plus
// prompt, then the bare prompt. Only the last failure propagates.
func (uc *TutorUseCase) completeWithFallback(ctx context.Context, systemPrompt, excerpt, historyContext, prompt string, material *domain.Material) (string, bool, error) {
	reply, err := uc.complete(ctx, systemPrompt, buildChatPayload(excerpt, historyContext, prompt))
	if err == nil {
		return reply, false, nil
	}
	slog.Warn("chat_model_call_failed", "stage", "full_context", "error", err)

	if len(material.Attachments) > 0 {
		if gathered, gatherErr := uc.text.Gather(ctx, material, nil); gatherErr == nil {
			reply, err = uc.complete(ctx, systemPrompt, buildChatPayload(uc.text.Excerpt(gathered), "", prompt))
			if err == nil {
				return reply, true, nil
			}
			slog.Warn("chat_model_call_failed", "stage", "material_only", "error", err)
		}
	}

	reply, err = uc.complete(ctx, systemPrompt, buildChatPayload("", "", prompt))
	if err == nil {
		return reply, true, nil
	}
	return "", false, fmt.Errorf("chat completion exhausted fallbacks: %w", err)
}

func (uc *TutorUseCase) complete(ctx context.Context, systemPrompt, payload string) (string, error) {
	reply, err := uc.model.Complete(ctx, []domain.PromptMessage{
		{Role: "system", Content: systemPrompt},
		{Role: domain.RoleUser, Content: payload},
	}, uc.maxTokens)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", domain.WrapError(domain.ErrAIService, "chat completion", fmt.Errorf("model returned an empty reply"))
	}
	return reply, nil
}

// RegenerateSummary forces a summary-staleness check outside a chat turn.
// Returns whether a fresh summary was installed; model failures are logged
// and leave the previous summary in place.
func (uc *TutorUseCase) RegenerateSummary(ctx context.Context, conversationID string) (bool, error) {
	refreshed := false
	err := uc.conversations.WithLocked(ctx, conversationID, func(ctx context.Context, conversation *domain.Conversation) error {
		refreshed = uc.refreshSummary(ctx, conversation)
		if !refreshed {
			return nil
		}
		return uc.conversations.Save(ctx, conversation)
	})
	if err != nil {
		return false, err
	}
	return refreshed, nil
}

// refreshSummary compresses everything but the last two messages into the
// rolling summary when the conversation has outgrown its threshold.
func (uc *TutorUseCase) refreshSummary(ctx context.Context, conversation *domain.Conversation) bool {
	if !conversation.ShouldRegenerateSummary() {
		return false
	}
	if len(conversation.Messages) <= 2 {
		return false
	}

	older := conversation.Messages[:len(conversation.Messages)-2]
	prompt := buildSummaryPrompt(conversation.SummaryContext, older)
	reply, err := uc.model.Complete(ctx, []domain.PromptMessage{
		{Role: "system", Content: prompt},
	}, uc.maxTokens)
	if err != nil || strings.TrimSpace(reply) == "" {
		// Stale summary beats no conversation; the next turn retries.
		slog.Warn("summary_regeneration_failed",
			"conversation_id", conversation.ID,
			"error", err,
		)
		return false
	}

	conversation.MarkSummarized(reply, uc.now())
	return true
}
