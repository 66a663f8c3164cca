package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/storage"
	"github.com/nothingmachine/chat-backend/internal/types"
)

// Store implements storage.ConversationStore on top of Postgres. Messages
// live as a JSONB array on the conversation row, so a save is a single
// UPDATE and reads never join.
type Store struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewStore creates a conversation store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger *logrus.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// Insert creates a new conversation row and returns its assigned id.
func (s *Store) Insert(ctx context.Context, title string, messages []types.Message, userName *string) (uuid.UUID, error) {
	body, err := encodeMessages(messages)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx,
		`INSERT INTO conversations (title, messages, user_name)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		title, body, userName,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert conversation: %w", err)
	}
	return id, nil
}

// Update overwrites the derived fields and message array of a conversation
// and refreshes updated_at.
func (s *Store) Update(ctx context.Context, id uuid.UUID, title string, messages []types.Message, userName *string) error {
	body, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations
		 SET title = $2, messages = $3, user_name = $4, updated_at = now()
		 WHERE id = $1`,
		id, title, body, userName,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Get returns a single conversation with its full message array.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, messages, user_name, created_at, updated_at
		 FROM conversations
		 WHERE id = $1`,
		id,
	)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// List returns up to limit conversations ordered by most recent update.
func (s *Store) List(ctx context.Context, limit int) ([]types.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, messages, user_name, created_at, updated_at
		 FROM conversations
		 ORDER BY updated_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []types.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// Delete removes a conversation row.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func encodeMessages(messages []types.Message) ([]byte, error) {
	if messages == nil {
		messages = []types.Message{}
	}
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return body, nil
}

func scanConversation(row pgx.Row) (*types.Conversation, error) {
	var (
		conv types.Conversation
		body []byte
	)
	if err := row.Scan(&conv.ID, &conv.Title, &body, &conv.UserName, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &conv.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if conv.Messages == nil {
		conv.Messages = []types.Message{}
	}
	return &conv, nil
}

var _ storage.ConversationStore = (*Store)(nil)
