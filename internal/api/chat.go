package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nothingmachine/chat-backend/internal/ai/anthropic"
	"github.com/nothingmachine/chat-backend/internal/types"
)

// DefaultSystemPrompt is used when the request omits systemPrompt.
const DefaultSystemPrompt = "You are a helpful AI assistant running on the Nothing Machine."

// DemoMessage is streamed as the sole fragment when no provider credential
// is configured. Demo mode is a documented degraded mode, not an error.
const DemoMessage = "I'm running in demo mode: no Anthropic API key configured. Set ANTHROPIC_API_KEY and restart the server."

// ChatMessage is one entry of the incoming message history. Content may be
// a flat string or a parts array; resolveContent reconciles the two.
type ChatMessage struct {
	ID      string            `json:"id,omitempty"`
	Role    types.MessageRole `json:"role"`
	Content string            `json:"content,omitempty"`
	Parts   []types.Part      `json:"parts,omitempty"`
}

// ChatRequest is the request body for the streaming chat gateway.
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
}

// Chat proxies a message history to the model provider and re-emits its
// output as a text-delta event stream. Failures of any kind are reported
// in-band as a single "Error: " fragment inside the same framing, never as
// a non-2xx status, so clients always parse the body as a stream.
func (s *Server) Chat(c echo.Context) error {
	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		writeTextDelta(w, flusher, "Error: invalid request body")
		return writeEndMarker(w, flusher)
	}

	if req.SystemPrompt == "" {
		req.SystemPrompt = DefaultSystemPrompt
	}

	if s.anthropic == nil {
		writeTextDelta(w, flusher, DemoMessage)
		return writeEndMarker(w, flusher)
	}

	stream, err := s.anthropic.StreamMessage(c.Request().Context(), &anthropic.Request{
		System:    req.SystemPrompt,
		Messages:  providerMessages(req.Messages),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		s.logger.WithError(err).Error("chat completion failed")
		writeTextDelta(w, flusher, "Error: "+err.Error())
		return writeEndMarker(w, flusher)
	}
	defer stream.Close()

	for stream.Next() {
		if err := writeTextDelta(w, flusher, stream.Text()); err != nil {
			// Client went away; nothing more to deliver.
			return nil
		}
	}
	if err := stream.Err(); err != nil {
		s.logger.WithError(err).Error("chat stream interrupted")
		writeTextDelta(w, flusher, "Error: "+err.Error())
	}

	return writeEndMarker(w, flusher)
}

// resolveContent extracts the text of a history entry: a non-empty flat
// content field wins, otherwise the concatenation of text-typed parts.
func resolveContent(m ChatMessage) string {
	if m.Content != "" {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Type == types.PartTypeText {
			out += p.Text
		}
	}
	return out
}

// providerMessages filters the history to user and assistant turns. Any
// system-role entries are dropped: the explicit systemPrompt parameter is
// the sole system instruction channel.
func providerMessages(msgs []ChatMessage) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != types.RoleUser && m.Role != types.RoleAssistant {
			continue
		}
		out = append(out, anthropic.Message{
			Role:    string(m.Role),
			Content: resolveContent(m),
		})
	}
	return out
}
