package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nothingmachine/chat-backend/internal/storage"
	"github.com/nothingmachine/chat-backend/internal/types"
)

// CreateConversationRequest is the request body for creating a conversation.
type CreateConversationRequest struct {
	UserName *string `json:"user_name"`
}

// CreateConversationResponse carries the assigned id, or null when
// persistence is unavailable and the client should continue an unsaved
// session.
type CreateConversationResponse struct {
	ID *uuid.UUID `json:"id"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []types.ConversationSummary `json:"conversations"`
}

// SaveConversationRequest is the request body for saving messages.
type SaveConversationRequest struct {
	Messages []types.Message `json:"messages"`
	UserName *string         `json:"user_name"`
}

// GetConversationResponse carries the full message sequence.
type GetConversationResponse struct {
	Messages []types.Message `json:"messages"`
}

// ListConversations returns the summary projection of the most recently
// updated conversations.
func (s *Server) ListConversations(c echo.Context) error {
	summaries := s.convRepo.FetchSummaries(c.Request().Context())
	if summaries == nil {
		summaries = []types.ConversationSummary{}
	}
	return c.JSON(http.StatusOK, ListConversationsResponse{Conversations: summaries})
}

// CreateConversation inserts a new empty conversation and marks it active.
func (s *Server) CreateConversation(c echo.Context) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	id, err := s.convRepo.Create(c.Request().Context(), req.UserName)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			// Persistence unavailable is not a failure; the client keeps
			// an unsaved in-memory session.
			return c.JSON(http.StatusOK, CreateConversationResponse{ID: nil})
		}
		s.logger.WithError(err).Error("failed to create conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create conversation"})
	}

	return c.JSON(http.StatusCreated, CreateConversationResponse{ID: &id})
}

// GetConversation loads the full message sequence of one conversation and
// marks it active.
func (s *Server) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	messages, err := s.convRepo.Load(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNotConfigured) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to load conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load conversation"})
	}

	if messages == nil {
		messages = []types.Message{}
	}
	return c.JSON(http.StatusOK, GetConversationResponse{Messages: messages})
}

// SaveConversation upserts the message array with recomputed title and
// preview. Persistence failures are logged, never surfaced: local state is
// authoritative until the next successful save.
func (s *Server) SaveConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req SaveConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	s.convRepo.Save(c.Request().Context(), id, req.Messages, req.UserName)
	return c.JSON(http.StatusAccepted, OKResponse{OK: true})
}

// DeleteConversation removes a conversation.
func (s *Server) DeleteConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	if err := s.convRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNotConfigured) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to delete conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete conversation"})
	}

	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
