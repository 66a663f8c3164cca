package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nothingmachine/chat-backend/internal/storage"
)

// changeEvent is one record of the realtime feed. List views refetch
// summaries whenever they receive one.
type changeEvent struct {
	Type string `json:"type"`
	Op   string `json:"op"`
	ID   string `json:"id"`
}

// Events streams a record for every change to the conversation table until
// the client disconnects. The refresh it triggers on the client is a full
// refetch, so delivery is idempotent.
func (s *Server) Events(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	ctx := c.Request().Context()

	changes := make(chan storage.Change, 16)
	cancel, err := s.convRepo.Subscribe(ctx, func(ch storage.Change) {
		select {
		case changes <- ch:
		default:
			// Subscriber fell behind; the next event still triggers a
			// full refetch, so dropping is safe.
		}
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to subscribe to conversation changes")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "subscription unavailable"})
	}
	defer cancel()

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch := <-changes:
			payload, err := json.Marshal(changeEvent{
				Type: "conversations-changed",
				Op:   string(ch.Op),
				ID:   ch.ID.String(),
			})
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
