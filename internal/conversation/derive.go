package conversation

import (
	"github.com/nothingmachine/chat-backend/internal/types"
)

const (
	// DefaultTitle is used until a conversation has a user message.
	DefaultTitle = "New Conversation"
	// EmptyPreview is used until a conversation has an assistant message.
	EmptyPreview = "No messages yet"

	titleMax    = 50
	titleKeep   = 47
	previewMax  = 80
	previewKeep = 77
)

// Title derives a conversation title from its message sequence: the text of
// the first user message, truncated to 50 display characters. Pure function
// of the messages; recomputed on every save.
func Title(messages []types.Message) string {
	for _, m := range messages {
		if m.Role != types.RoleUser {
			continue
		}
		text := m.Text()
		if text == "" {
			return DefaultTitle
		}
		return truncate(text, titleMax, titleKeep)
	}
	return DefaultTitle
}

// Preview derives a listing preview: the text of the last assistant message,
// truncated to 80 display characters.
func Preview(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != types.RoleAssistant {
			continue
		}
		text := messages[i].Text()
		if text == "" {
			return EmptyPreview
		}
		return truncate(text, previewMax, previewKeep)
	}
	return EmptyPreview
}

// truncate limits s to max runes, replacing the tail with "..." so the
// result never exceeds max.
func truncate(s string, max, keep int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:keep]) + "..."
}
