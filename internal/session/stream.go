package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nothingmachine/chat-backend/internal/types"
)

// DeltaReader iterates incremental text fragments of one completion stream.
type DeltaReader interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// StreamFunc opens a completion stream for a message history.
type StreamFunc func(ctx context.Context, messages []types.Message, systemPrompt string) (DeltaReader, error)

// Client talks to the streaming chat gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Streams stay open until the end marker; no client timeout.
		httpClient: &http.Client{},
	}
}

type chatRequest struct {
	Messages     []types.Message `json:"messages"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
}

// Stream posts the history to the gateway and returns a reader over its
// text-delta records.
func (c *Client) Stream(ctx context.Context, messages []types.Message, systemPrompt string) (DeltaReader, error) {
	body, err := json.Marshal(chatRequest{Messages: messages, SystemPrompt: systemPrompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	// The gateway never signals generation failure via status codes, but a
	// proxy in between still might.
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("gateway: status %d: %s", resp.StatusCode, string(respBody))
	}

	return newDeltaStream(resp.Body), nil
}

// deltaRecord mirrors the gateway's stream framing.
type deltaRecord struct {
	Type      string `json:"type"`
	TextDelta string `json:"textDelta"`
}

// deltaStream reads text-delta records line by line until the end marker.
type deltaStream struct {
	reader  *bufio.Reader
	body    io.ReadCloser
	current string
	err     error
	done    bool
}

func newDeltaStream(body io.ReadCloser) *deltaStream {
	return &deltaStream{
		reader: bufio.NewReader(body),
		body:   body,
	}
}

func (s *deltaStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.done = true
			} else {
				s.err = err
			}
			return false
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.done = true
			return false
		}

		var record deltaRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			continue
		}
		if record.Type != "text-delta" {
			continue
		}

		s.current = record.TextDelta
		return true
	}
}

func (s *deltaStream) Text() string {
	return s.current
}

func (s *deltaStream) Err() error {
	return s.err
}

func (s *deltaStream) Close() error {
	return s.body.Close()
}

var _ DeltaReader = (*deltaStream)(nil)
