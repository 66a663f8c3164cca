package conversation

import (
	"strings"
	"testing"

	"github.com/nothingmachine/chat-backend/internal/types"
)

func userMsg(text string) types.Message {
	return types.NewMessage(types.RoleUser, text)
}

func assistantMsg(text string) types.Message {
	return types.NewMessage(types.RoleAssistant, text)
}

func TestTitleDefaults(t *testing.T) {
	if got := Title(nil); got != DefaultTitle {
		t.Fatalf("Title(nil) = %q, want %q", got, DefaultTitle)
	}
	if got := Title([]types.Message{assistantMsg("hi there")}); got != DefaultTitle {
		t.Fatalf("Title without user message = %q, want %q", got, DefaultTitle)
	}
	if got := Title([]types.Message{userMsg("")}); got != DefaultTitle {
		t.Fatalf("Title of empty user message = %q, want %q", got, DefaultTitle)
	}
}

func TestTitleUsesFirstUserMessage(t *testing.T) {
	msgs := []types.Message{
		assistantMsg("welcome"),
		userMsg("first question"),
		userMsg("second question"),
	}
	if got := Title(msgs); got != "first question" {
		t.Fatalf("Title = %q, want %q", got, "first question")
	}
}

func TestTitleTruncation(t *testing.T) {
	exact := strings.Repeat("a", 50)
	if got := Title([]types.Message{userMsg(exact)}); got != exact {
		t.Fatalf("50-char title should be verbatim, got %q", got)
	}

	over := strings.Repeat("b", 51)
	got := Title([]types.Message{userMsg(over)})
	want := strings.Repeat("b", 47) + "..."
	if got != want {
		t.Fatalf("51-char title = %q, want %q", got, want)
	}
	if n := len([]rune(got)); n > 50 {
		t.Fatalf("truncated title is %d runes, want <= 50", n)
	}
}

func TestTitleJoinsTextParts(t *testing.T) {
	msg := types.Message{
		ID:   "m1",
		Role: types.RoleUser,
		Parts: []types.Part{
			{Type: types.PartTypeText, Text: "hello "},
			{Type: "image", Text: "ignored"},
			{Type: types.PartTypeText, Text: "world"},
		},
	}
	if got := Title([]types.Message{msg}); got != "hello world" {
		t.Fatalf("Title = %q, want %q", got, "hello world")
	}
}

func TestPreviewDefaults(t *testing.T) {
	if got := Preview(nil); got != EmptyPreview {
		t.Fatalf("Preview(nil) = %q, want %q", got, EmptyPreview)
	}
	if got := Preview([]types.Message{userMsg("anyone there?")}); got != EmptyPreview {
		t.Fatalf("Preview without assistant message = %q, want %q", got, EmptyPreview)
	}
	if got := Preview([]types.Message{assistantMsg("")}); got != EmptyPreview {
		t.Fatalf("Preview of empty assistant message = %q, want %q", got, EmptyPreview)
	}
}

func TestPreviewUsesLastAssistantMessage(t *testing.T) {
	msgs := []types.Message{
		assistantMsg("first reply"),
		userMsg("more"),
		assistantMsg("latest reply"),
		userMsg("unanswered"),
	}
	if got := Preview(msgs); got != "latest reply" {
		t.Fatalf("Preview = %q, want %q", got, "latest reply")
	}
}

func TestPreviewTruncation(t *testing.T) {
	exact := strings.Repeat("x", 80)
	if got := Preview([]types.Message{assistantMsg(exact)}); got != exact {
		t.Fatalf("80-char preview should be verbatim, got %q", got)
	}

	over := strings.Repeat("y", 81)
	got := Preview([]types.Message{assistantMsg(over)})
	want := strings.Repeat("y", 77) + "..."
	if got != want {
		t.Fatalf("81-char preview = %q, want %q", got, want)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	msgs := []types.Message{
		userMsg("does it hold"),
		assistantMsg("it holds"),
	}
	for i := 0; i < 3; i++ {
		if got := Title(msgs); got != "does it hold" {
			t.Fatalf("run %d: Title = %q", i, got)
		}
		if got := Preview(msgs); got != "it holds" {
			t.Fatalf("run %d: Preview = %q", i, got)
		}
	}
}
