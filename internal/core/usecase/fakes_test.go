package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ratatutor/backend/internal/core/domain"
)

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, attachment domain.Attachment) (string, error) {
	if err, ok := f.errs[attachment.ID]; ok {
		return "", err
	}
	return f.texts[attachment.ID], nil
}

type fakeChunker struct {
	size int
}

func (f *fakeChunker) Split(text string) []string {
	size := f.size
	if size <= 0 {
		size = 1000
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// fakeModel replays queued replies in order; an empty queue entry with a
// matching error simulates a failed call. Payloads are recorded per call.
type fakeModel struct {
	replies []string
	errs    []error
	calls   [][]domain.PromptMessage
}

func (f *fakeModel) Complete(_ context.Context, messages []domain.PromptMessage, _ int) (string, error) {
	f.calls = append(f.calls, messages)
	idx := len(f.calls) - 1

	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return "", err
	}
	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return "", fmt.Errorf("fakeModel: no reply queued for call %d", idx)
}

func (f *fakeModel) lastPayload() string {
	return f.payloadAt(len(f.calls) - 1)
}

func (f *fakeModel) payloadAt(idx int) string {
	if idx < 0 || idx >= len(f.calls) {
		return ""
	}
	parts := make([]string, 0, len(f.calls[idx]))
	for _, msg := range f.calls[idx] {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n---\n")
}

type fakeMaterialRepo struct {
	materials   map[string]*domain.Material
	attachments map[string]*domain.Attachment
}

func newFakeMaterialRepo(materials ...*domain.Material) *fakeMaterialRepo {
	repo := &fakeMaterialRepo{
		materials:   make(map[string]*domain.Material),
		attachments: make(map[string]*domain.Attachment),
	}
	for _, material := range materials {
		repo.materials[material.ID] = material
	}
	return repo
}

func (f *fakeMaterialRepo) CreateMaterial(_ context.Context, material *domain.Material) error {
	f.materials[material.ID] = material
	return nil
}

func (f *fakeMaterialRepo) GetMaterial(_ context.Context, id string) (*domain.Material, error) {
	material, ok := f.materials[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get material", fmt.Errorf("material %s", id))
	}
	return material, nil
}

func (f *fakeMaterialRepo) AddAttachment(_ context.Context, attachment *domain.Attachment) error {
	f.attachments[attachment.ID] = attachment
	if material, ok := f.materials[attachment.MaterialID]; ok {
		material.Attachments = append(material.Attachments, *attachment)
	}
	return nil
}

func (f *fakeMaterialRepo) GetAttachment(_ context.Context, id string) (*domain.Attachment, error) {
	attachment, ok := f.attachments[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get attachment", fmt.Errorf("attachment %s", id))
	}
	return attachment, nil
}

func (f *fakeMaterialRepo) UpdateAttachmentExtractStatus(_ context.Context, id string, status domain.ExtractStatus, message string) error {
	attachment, ok := f.attachments[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update extract status", fmt.Errorf("attachment %s", id))
	}
	attachment.ExtractStatus = status
	attachment.ExtractError = message
	return nil
}

type fakeConversationStore struct {
	conversations map[string]*domain.Conversation
	saves         int
}

func newFakeConversationStore(conversations ...*domain.Conversation) *fakeConversationStore {
	store := &fakeConversationStore{conversations: make(map[string]*domain.Conversation)}
	for _, conversation := range conversations {
		store.conversations[conversation.ID] = conversation
	}
	return store
}

func (f *fakeConversationStore) GetOrCreate(_ context.Context, userID, materialID string) (*domain.Conversation, error) {
	for _, conversation := range f.conversations {
		if conversation.UserID == userID && conversation.MaterialID == materialID {
			return conversation, nil
		}
	}
	conversation := &domain.Conversation{
		ID:         fmt.Sprintf("conv-%d", len(f.conversations)+1),
		UserID:     userID,
		MaterialID: materialID,
	}
	f.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (f *fakeConversationStore) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	conversation, ok := f.conversations[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get conversation", fmt.Errorf("conversation %s", id))
	}
	return conversation, nil
}

func (f *fakeConversationStore) Save(_ context.Context, conversation *domain.Conversation) error {
	f.conversations[conversation.ID] = conversation
	f.saves++
	return nil
}

func (f *fakeConversationStore) WithLocked(ctx context.Context, id string, fn func(context.Context, *domain.Conversation) error) error {
	conversation, ok := f.conversations[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "lock conversation", fmt.Errorf("conversation %s", id))
	}
	return fn(ctx, conversation)
}

type fakeObjectStorage struct {
	saved map[string]string
	err   error
}

func (f *fakeObjectStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *fakeObjectStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.saved[key]
	if !ok {
		return nil, fmt.Errorf("no object for key %s", key)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishAttachmentUploaded(_ context.Context, attachmentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, attachmentID)
	return nil
}

func (f *fakeQueue) SubscribeAttachmentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeContentStore struct {
	notes   []*domain.Note
	sets    []*domain.FlashcardSet
	quizzes []*domain.Quiz
	err     error
}

func (f *fakeContentStore) CreateNote(_ context.Context, note *domain.Note) error {
	if f.err != nil {
		return f.err
	}
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeContentStore) CreateFlashcardSet(_ context.Context, set *domain.FlashcardSet) error {
	if f.err != nil {
		return f.err
	}
	f.sets = append(f.sets, set)
	return nil
}

func (f *fakeContentStore) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	if f.err != nil {
		return f.err
	}
	f.quizzes = append(f.quizzes, quiz)
	return nil
}
