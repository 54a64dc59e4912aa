// internal/conversation/store.go
// Package conversation persists chat history in PostgreSQL. The table names
// (conservation, conservation_detail) are kept from the upstream schema for
// compatibility with existing databases. Details are append-only, ordered by
// creation time; individual messages are never mutated or deleted, only a
// whole conversation cascades away.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
)

// ErrNotFound is returned when a conversation id does not exist.
var ErrNotFound = errors.New("conversation not found")

// DBPool abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides the PostgreSQL implementation of conversation persistence.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("conversation_store"),
	}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conservation (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT REFERENCES users(id),
    title VARCHAR(255),
    last_update TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conservation_user_id ON conservation(user_id);

CREATE TABLE IF NOT EXISTS conservation_detail (
    id BIGSERIAL PRIMARY KEY,
    conversation_id BIGINT NOT NULL REFERENCES conservation(id) ON DELETE CASCADE,
    role VARCHAR(32) NOT NULL,
    message TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conservation_detail_conversation_id ON conservation_detail(conversation_id);
`

// InitSchema creates the conversation tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize conversation schema: %w", err)
	}
	return nil
}

// Create starts a new conversation, optionally owned by a user.
func (s *Store) Create(ctx context.Context, userID *int64, title string) (*schemas.Conversation, error) {
	convo := &schemas.Conversation{UserID: userID, Title: title}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conservation (user_id, title, last_update) VALUES ($1, $2, now())
         RETURNING id, last_update`,
		userID, nullable(title),
	).Scan(&convo.ID, &convo.LastUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return convo, nil
}

// Get fetches one conversation by id.
func (s *Store) Get(ctx context.Context, id int64) (*schemas.Conversation, error) {
	var convo schemas.Conversation
	var title *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, last_update FROM conservation WHERE id = $1`, id,
	).Scan(&convo.ID, &convo.UserID, &title, &convo.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	if title != nil {
		convo.Title = *title
	}
	return &convo, nil
}

// Touch bumps last_update and optionally renames the conversation.
func (s *Store) Touch(ctx context.Context, id int64, title string) error {
	var tag pgconn.CommandTag
	var err error
	if title != "" {
		tag, err = s.pool.Exec(ctx,
			`UPDATE conservation SET title = $2, last_update = now() WHERE id = $1`, id, title)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE conservation SET last_update = now() WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPair appends the user question and assistant reply in one transaction
// and bumps last_update, so a half-written exchange never becomes visible.
func (s *Store) AddPair(ctx context.Context, conversationID int64, userMessage, assistantMessage string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	const insertDetail = `INSERT INTO conservation_detail (conversation_id, role, message, created_at)
                          VALUES ($1, $2, $3, $4)`
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, insertDetail, conversationID, schemas.RoleUser, userMessage, now); err != nil {
		return fmt.Errorf("failed to insert user message: %w", err)
	}
	if _, err := tx.Exec(ctx, insertDetail, conversationID, schemas.RoleAssistant, assistantMessage, now); err != nil {
		return fmt.Errorf("failed to insert assistant message: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE conservation SET last_update = now() WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("failed to update conversation timestamp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns conversations ordered by recency. A non-nil userID filters to
// that owner.
func (s *Store) List(ctx context.Context, userID *int64, skip, limit int) ([]schemas.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if userID != nil {
		rows, err = s.pool.Query(ctx,
			`SELECT id, user_id, title, last_update FROM conservation
             WHERE user_id = $1 ORDER BY last_update DESC OFFSET $2 LIMIT $3`,
			*userID, skip, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, user_id, title, last_update FROM conservation
             ORDER BY last_update DESC OFFSET $1 LIMIT $2`,
			skip, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []schemas.Conversation
	for rows.Next() {
		var convo schemas.Conversation
		var title *string
		if err := rows.Scan(&convo.ID, &convo.UserID, &title, &convo.LastUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		if title != nil {
			convo.Title = *title
		}
		out = append(out, convo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// ListDetails returns all messages of a conversation in creation order.
func (s *Store) ListDetails(ctx context.Context, conversationID int64) ([]schemas.ConversationDetail, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, message, created_at FROM conservation_detail
         WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation details: %w", err)
	}
	defer rows.Close()

	var out []schemas.ConversationDetail
	for rows.Next() {
		var d schemas.ConversationDetail
		if err := rows.Scan(&d.ID, &d.ConversationID, &d.Role, &d.Message, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detail row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// Delete removes a conversation; details cascade at the database level.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conservation WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
