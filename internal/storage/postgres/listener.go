package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/nothingmachine/chat-backend/internal/storage"
)

const changeChannel = "conversation_changes"

// notifyPayload mirrors the JSON built by the notify_conversation_change
// trigger.
type notifyPayload struct {
	Op string    `json:"op"`
	ID uuid.UUID `json:"id"`
}

// Subscribe registers a handler for conversation table changes. It holds a
// dedicated connection on LISTEN until the returned cancel func runs or the
// context is done. The trigger fires for writes from any client, so changes
// made by other processes are observed too.
func (s *Store) Subscribe(ctx context.Context, handler func(storage.Change)) (storage.CancelFunc, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	listenCtx, cancel := context.WithCancel(ctx)

	if _, err := conn.Exec(listenCtx, "LISTEN "+changeChannel); err != nil {
		cancel()
		conn.Release()
		return nil, err
	}

	// The guard keeps a notification that raced with cancellation from
	// reaching the handler late.
	guard := storage.NewHandlerGuard(handler)

	go func() {
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil {
					s.logger.WithError(err).Error("conversation change listener stopped")
				}
				return
			}

			var payload notifyPayload
			if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
				s.logger.WithError(err).Warn("malformed conversation change payload")
				continue
			}

			guard.Deliver(storage.Change{Op: storage.ChangeOp(payload.Op), ID: payload.ID})
		}
	}()

	return func() {
		guard.Close()
		cancel()
	}, nil
}
