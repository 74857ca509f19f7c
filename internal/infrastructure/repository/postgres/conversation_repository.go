package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ratatutor/backend/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// querier abstracts *sql.DB and *sql.Tx so Save works both standalone and
// inside a WithLocked transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

func (r *ConversationRepository) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

const conversationColumns = `id, user_id, material_id, messages, summary_context, messages_since_summary, last_summary_at, legacy_context, created_at, updated_at`

// GetOrCreate returns the single conversation for (user, material), creating
// it on first contact. The unique constraint makes concurrent first turns
// converge on one row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userID, materialID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (id, user_id, material_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (user_id, material_id) DO NOTHING
`, uuid.NewString(), userID, materialID, now)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation insert: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+conversationColumns+`
FROM conversations
WHERE user_id = $1 AND material_id = $2
`, userID, materialID)

	conversation, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation select: %w", err)
	}
	return conversation, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	row := r.querier(ctx).QueryRowContext(ctx, `
SELECT `+conversationColumns+`
FROM conversations
WHERE id = $1
`, id)

	conversation, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get conversation", fmt.Errorf("conversation %s", id))
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return conversation, nil
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *domain.Conversation) error {
	messagesJSON, err := json.Marshal(conversation.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	result, err := r.querier(ctx).ExecContext(ctx, `
UPDATE conversations
SET messages = $2,
	summary_context = $3,
	messages_since_summary = $4,
	last_summary_at = $5,
	legacy_context = $6,
	updated_at = $7
WHERE id = $1
`, conversation.ID, messagesJSON, conversation.SummaryContext, conversation.MessagesSinceSummary,
		nullableTime(conversation.LastSummaryAt), conversation.LegacyContext, conversation.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "save conversation", fmt.Errorf("conversation %s", conversation.ID))
	}
	return nil
}

// WithLocked loads the conversation under SELECT ... FOR UPDATE and runs fn
// inside the transaction. Saves issued by fn reuse the same transaction via
// the context, so the row lock serializes concurrent turns end to end.
func (r *ConversationRepository) WithLocked(ctx context.Context, id string, fn func(ctx context.Context, conversation *domain.Conversation) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin conversation tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
SELECT `+conversationColumns+`
FROM conversations
WHERE id = $1
FOR UPDATE
`, id)

	conversation, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WrapError(domain.ErrNotFound, "lock conversation", fmt.Errorf("conversation %s", id))
		}
		return fmt.Errorf("scan locked conversation: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx), conversation); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversation tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var conversation domain.Conversation
	var messagesRaw []byte
	var lastSummaryAt sql.NullTime

	err := row.Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.MaterialID,
		&messagesRaw,
		&conversation.SummaryContext,
		&conversation.MessagesSinceSummary,
		&lastSummaryAt,
		&conversation.LegacyContext,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(messagesRaw) > 0 {
		if err := json.Unmarshal(messagesRaw, &conversation.Messages); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
	}
	if lastSummaryAt.Valid {
		t := lastSummaryAt.Time
		conversation.LastSummaryAt = &t
	}
	return &conversation, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
