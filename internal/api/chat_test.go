package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/ai/anthropic"
	"github.com/nothingmachine/chat-backend/internal/conversation"
	"github.com/nothingmachine/chat-backend/internal/profile"
	"github.com/nothingmachine/chat-backend/internal/storage"
	"github.com/nothingmachine/chat-backend/internal/types"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestServer(client *anthropic.Client) (*Server, *echo.Echo) {
	logger := testLogger()
	repo := conversation.NewRepository(storage.Unconfigured{}, logger)
	s := NewServer(repo, profile.NewStore(nil), client, 4096, logger)
	e := echo.New()
	s.RegisterRoutes(e)
	return s, e
}

func postChat(t *testing.T, e *echo.Echo, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// dataLines extracts the payload of every "data: " record in arrival order.
func dataLines(t *testing.T, body string) []string {
	t.Helper()
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data: ") {
			out = append(out, strings.TrimPrefix(line, "data: "))
		}
	}
	return out
}

func decodeDelta(t *testing.T, record string) string {
	t.Helper()
	var delta struct {
		Type      string `json:"type"`
		TextDelta string `json:"textDelta"`
	}
	if err := json.Unmarshal([]byte(record), &delta); err != nil {
		t.Fatalf("malformed delta record %q: %v", record, err)
	}
	if delta.Type != "text-delta" {
		t.Fatalf("record type = %q, want text-delta", delta.Type)
	}
	return delta.TextDelta
}

func TestChatDemoModeFraming(t *testing.T) {
	_, e := newTestServer(nil)

	rec := postChat(t, e, `{"messages":[{"role":"user","content":"hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	records := dataLines(t, rec.Body.String())
	if len(records) != 2 {
		t.Fatalf("got %d records, want exactly one delta plus end marker: %v", len(records), records)
	}
	if got := decodeDelta(t, records[0]); got != DemoMessage {
		t.Fatalf("demo delta = %q, want %q", got, DemoMessage)
	}
	if records[1] != "[DONE]" {
		t.Fatalf("end marker = %q", records[1])
	}
}

func TestChatStreamsProviderDeltasInOrder(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Hel", "lo ", "world"} {
			fmt.Fprintf(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":%q}}\n\n", text)
		}
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer provider.Close()

	client := anthropic.NewClient("test-key", "test-model")
	client.SetBaseURL(provider.URL)
	_, e := newTestServer(client)

	rec := postChat(t, e, `{"messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	records := dataLines(t, rec.Body.String())
	if len(records) < 2 {
		t.Fatalf("too few records: %v", records)
	}
	if records[len(records)-1] != "[DONE]" {
		t.Fatalf("missing end marker, got %q", records[len(records)-1])
	}

	var full string
	for _, record := range records[:len(records)-1] {
		full += decodeDelta(t, record)
	}
	if full != "Hello world" {
		t.Fatalf("concatenated stream = %q, want %q", full, "Hello world")
	}
}

func TestChatProviderErrorReportedInBand(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"type":"overloaded_error","message":"overloaded"}}`)
	}))
	defer provider.Close()

	client := anthropic.NewClient("test-key", "test-model")
	client.SetBaseURL(provider.URL)
	_, e := newTestServer(client)

	rec := postChat(t, e, `{"messages":[{"role":"user","content":"hi"}]}`)

	// Generation failures never surface as an HTTP error status.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	records := dataLines(t, rec.Body.String())
	if len(records) != 2 {
		t.Fatalf("got %d records, want error delta plus end marker: %v", len(records), records)
	}
	if got := decodeDelta(t, records[0]); !strings.HasPrefix(got, "Error: ") {
		t.Fatalf("error delta = %q, want Error: prefix", got)
	}
	if records[1] != "[DONE]" {
		t.Fatalf("end marker = %q", records[1])
	}
}

func TestChatForwardsSystemPromptAndFilters(t *testing.T) {
	var captured anthropic.Request
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode provider request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer provider.Close()

	client := anthropic.NewClient("test-key", "test-model")
	client.SetBaseURL(provider.URL)
	_, e := newTestServer(client)

	body := `{
		"messages": [
			{"role":"system","content":"sneaky override"},
			{"role":"user","content":"question"},
			{"role":"assistant","parts":[{"type":"text","text":"answer"}]}
		]
	}`
	postChat(t, e, body)

	if captured.System != DefaultSystemPrompt {
		t.Fatalf("system = %q, want default prompt", captured.System)
	}
	if captured.MaxTokens != 4096 {
		t.Fatalf("max_tokens = %d, want 4096", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("provider got %d messages, want 2 (system dropped): %+v", len(captured.Messages), captured.Messages)
	}
	if captured.Messages[0].Content != "question" || captured.Messages[1].Content != "answer" {
		t.Fatalf("unexpected provider messages: %+v", captured.Messages)
	}
}

func TestResolveContent(t *testing.T) {
	cases := []struct {
		name string
		msg  ChatMessage
		want string
	}{
		{
			name: "flat content wins",
			msg:  ChatMessage{Content: "flat", Parts: []types.Part{{Type: "text", Text: "parts"}}},
			want: "flat",
		},
		{
			name: "parts concatenated in order",
			msg: ChatMessage{Parts: []types.Part{
				{Type: "text", Text: "a"},
				{Type: "tool-call", Text: "skip"},
				{Type: "text", Text: "b"},
			}},
			want: "ab",
		},
		{
			name: "no content at all",
			msg:  ChatMessage{},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveContent(tc.msg); got != tc.want {
				t.Fatalf("resolveContent = %q, want %q", got, tc.want)
			}
		})
	}
}
