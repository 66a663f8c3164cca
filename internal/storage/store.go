package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nothingmachine/chat-backend/internal/types"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotConfigured is returned by the unconfigured store variant. Callers
// treat it as "persistence unavailable", never as a fatal error.
var ErrNotConfigured = errors.New("store not configured")

// ChangeOp identifies the kind of row change behind a notification.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// Change describes a single row change on the conversations table.
type Change struct {
	Op ChangeOp  `json:"op"`
	ID uuid.UUID `json:"id"`
}

// CancelFunc tears down a change subscription. After it returns, the handler
// is never invoked again.
type CancelFunc func()

// ConversationStore is the adapter over the durable conversation table.
// Exactly one of the two variants backs it at runtime: the Postgres store
// when a DSN is configured, or Unconfigured otherwise.
type ConversationStore interface {
	// Insert creates a row and returns its assigned id.
	Insert(ctx context.Context, title string, messages []types.Message, userName *string) (uuid.UUID, error)
	// Update overwrites title, messages and user_name and refreshes
	// updated_at. Returns ErrNotFound for unknown ids.
	Update(ctx context.Context, id uuid.UUID, title string, messages []types.Message, userName *string) error
	// Get returns one full conversation.
	Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	// List returns up to limit conversations, most recently updated first.
	List(ctx context.Context, limit int) ([]types.Conversation, error)
	// Delete removes a row. Returns ErrNotFound for unknown ids.
	Delete(ctx context.Context, id uuid.UUID) error
	// Subscribe registers a handler invoked for every change to the
	// conversation table, regardless of which client caused it.
	Subscribe(ctx context.Context, handler func(Change)) (CancelFunc, error)
}

// Unconfigured is the store variant used when no database is configured.
// Every operation is a documented no-op so the rest of the system can run
// in a storage-less demo mode.
type Unconfigured struct{}

func (Unconfigured) Insert(context.Context, string, []types.Message, *string) (uuid.UUID, error) {
	return uuid.Nil, ErrNotConfigured
}

func (Unconfigured) Update(context.Context, uuid.UUID, string, []types.Message, *string) error {
	return ErrNotConfigured
}

func (Unconfigured) Get(context.Context, uuid.UUID) (*types.Conversation, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) List(context.Context, int) ([]types.Conversation, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, uuid.UUID) error {
	return ErrNotConfigured
}

// Subscribe on the unconfigured store never delivers a change.
func (Unconfigured) Subscribe(context.Context, func(Change)) (CancelFunc, error) {
	return func() {}, nil
}

var _ ConversationStore = Unconfigured{}
