package anthropic

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// streamEvent represents a single server-sent event from the messages API.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// Stream reads incremental text deltas from a streaming messages response.
// Iterate with Next, read the fragment with Text, then check Err.
type Stream struct {
	reader  *bufio.Reader
	body    io.ReadCloser
	current string
	err     error
	done    bool
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		reader: bufio.NewReader(body),
		body:   body,
	}
}

// Next advances to the next text delta. It returns false when the stream
// ends or fails; distinguish via Err.
func (s *Stream) Next() bool {
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

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" {
				s.current = event.Delta.Text
				return true
			}
		case "message_stop":
			s.done = true
			return false
		}
	}
}

// Text returns the fragment produced by the last successful Next.
func (s *Stream) Text() string {
	return s.current
}

// Err returns the first error encountered while reading the stream.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}
