package types

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// PartTypeText identifies renderable text parts. Parts with any other type
// are carried through storage untouched.
const PartTypeText = "text"

// Part is one content part of a message. Non-text parts keep their original
// type tag and are preserved but never rendered.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message represents a single turn in a conversation.
type Message struct {
	ID    string      `json:"id"`
	Role  MessageRole `json:"role"`
	Parts []Part      `json:"parts"`
}

// NewMessage creates a message with a fresh id and a single text part.
func NewMessage(role MessageRole, text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  role,
		Parts: []Part{{Type: PartTypeText, Text: text}},
	}
}

// Text returns the display content of the message: the concatenation of all
// text-typed parts in order.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			out += p.Text
		}
	}
	return out
}

// Conversation represents a persisted chat thread. Messages are stored as an
// ordered JSON array on the conversation row.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UserName  *string   `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is the listing projection of a conversation. It is
// derived on every fetch and never persisted.
type ConversationSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UserName  *string   `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Preview   string    `json:"preview"`
}
