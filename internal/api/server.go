package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/ai/anthropic"
	"github.com/nothingmachine/chat-backend/internal/conversation"
	"github.com/nothingmachine/chat-backend/internal/profile"
)

// Server holds API dependencies. anthropic is nil when no provider
// credential is configured; the chat gateway then serves demo responses.
type Server struct {
	convRepo  *conversation.Repository
	profiles  *profile.Store
	anthropic *anthropic.Client
	maxTokens int
	logger    *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(convRepo *conversation.Repository, profiles *profile.Store, anthropicClient *anthropic.Client, maxTokens int, logger *logrus.Logger) *Server {
	return &Server{
		convRepo:  convRepo,
		profiles:  profiles,
		anthropic: anthropicClient,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// RegisterRoutes mounts all API routes on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	api := e.Group("/api")
	api.POST("/chat", s.Chat)
	api.GET("/conversations", s.ListConversations)
	api.POST("/conversations", s.CreateConversation)
	api.GET("/conversations/:id", s.GetConversation)
	api.PUT("/conversations/:id", s.SaveConversation)
	api.DELETE("/conversations/:id", s.DeleteConversation)
	api.GET("/events", s.Events)
	api.GET("/profile", s.GetProfile)
	api.PUT("/profile", s.PutProfile)
	api.DELETE("/profile", s.DeleteProfile)
}
