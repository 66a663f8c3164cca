package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/storage"
	"github.com/nothingmachine/chat-backend/internal/types"
)

// summaryLimit caps how many conversations a listing fetch returns.
const summaryLimit = 50

// Repository owns conversation lifecycle logic: summary projection, derived
// title/preview, and active-conversation tracking. It keeps an in-memory
// summary list that soft-fails stale-but-available when the store errors.
type Repository struct {
	store  storage.ConversationStore
	logger *logrus.Logger

	mu        sync.RWMutex
	summaries []types.ConversationSummary
	activeID  uuid.UUID
}

// NewRepository creates a repository over the given store.
func NewRepository(store storage.ConversationStore, logger *logrus.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger,
	}
}

// FetchSummaries refreshes and returns the summary list: up to 50 most
// recently updated conversations, newest first. On store error the prior
// list is kept untouched.
func (r *Repository) FetchSummaries(ctx context.Context) []types.ConversationSummary {
	convs, err := r.store.List(ctx, summaryLimit)
	if err != nil {
		r.logSoftFailure("fetch conversations", err)
		return r.Summaries()
	}

	summaries := make([]types.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, types.ConversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			UserName:  c.UserName,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Preview:   Preview(c.Messages),
		})
	}

	r.mu.Lock()
	r.summaries = summaries
	r.mu.Unlock()

	return r.Summaries()
}

// Create inserts an empty conversation, marks it active, and refreshes the
// summary list. When persistence is unavailable it returns uuid.Nil and the
// store error; callers continue with an unsaved in-memory session.
func (r *Repository) Create(ctx context.Context, userName *string) (uuid.UUID, error) {
	id, err := r.store.Insert(ctx, DefaultTitle, []types.Message{}, userName)
	if err != nil {
		r.logSoftFailure("create conversation", err)
		return uuid.Nil, err
	}

	r.mu.Lock()
	r.activeID = id
	r.mu.Unlock()

	r.FetchSummaries(ctx)
	return id, nil
}

// Save recomputes title and preview from messages and upserts the full
// message array. On success the matching in-memory summary entry is updated
// in place without a refetch; on failure durable state is left to the next
// successful save.
func (r *Repository) Save(ctx context.Context, id uuid.UUID, messages []types.Message, userName *string) {
	title := Title(messages)
	if err := r.store.Update(ctx, id, title, messages, userName); err != nil {
		r.logSoftFailure("save conversation", err)
		return
	}

	preview := Preview(messages)
	now := time.Now().UTC()

	r.mu.Lock()
	for i := range r.summaries {
		if r.summaries[i].ID == id {
			r.summaries[i].Title = title
			r.summaries[i].Preview = preview
			r.summaries[i].UserName = userName
			r.summaries[i].UpdatedAt = now
			break
		}
	}
	r.mu.Unlock()
}

// Load fetches the full message sequence of one conversation and marks it
// active.
func (r *Repository) Load(ctx context.Context, id uuid.UUID) ([]types.Message, error) {
	conv, err := r.store.Get(ctx, id)
	if err != nil {
		r.logSoftFailure("load conversation", err)
		return nil, err
	}

	r.mu.Lock()
	r.activeID = id
	r.mu.Unlock()

	return conv.Messages, nil
}

// Delete removes a conversation. On success it drops the matching summary
// entry and clears the active id if the deleted conversation was active.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.Delete(ctx, id); err != nil {
		r.logSoftFailure("delete conversation", err)
		return err
	}

	r.mu.Lock()
	kept := r.summaries[:0]
	for _, s := range r.summaries {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.summaries = kept
	if r.activeID == id {
		r.activeID = uuid.Nil
	}
	r.mu.Unlock()

	return nil
}

// Summaries returns a copy of the current in-memory summary list.
func (r *Repository) Summaries() []types.ConversationSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ConversationSummary, len(r.summaries))
	copy(out, r.summaries)
	return out
}

// ActiveID returns the active conversation id, or uuid.Nil when none is
// active.
func (r *Repository) ActiveID() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// SetActive marks a conversation as the active one.
func (r *Repository) SetActive(id uuid.UUID) {
	r.mu.Lock()
	r.activeID = id
	r.mu.Unlock()
}

// Subscribe forwards to the store's change subscription.
func (r *Repository) Subscribe(ctx context.Context, handler func(storage.Change)) (storage.CancelFunc, error) {
	return r.store.Subscribe(ctx, handler)
}

// logSoftFailure records a persistence failure without surfacing it; a
// missing backend is expected in demo mode and logged at debug only.
func (r *Repository) logSoftFailure(op string, err error) {
	if errors.Is(err, storage.ErrNotConfigured) {
		r.logger.WithField("op", op).Debug("persistence not configured")
		return
	}
	r.logger.WithError(err).Errorf("failed to %s", op)
}
