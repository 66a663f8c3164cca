package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// endMarker is the literal line terminating every chat stream. Clients rely
// on it to know no further fragments will arrive.
const endMarker = "[DONE]"

// textDelta is one incremental fragment of generated text, the only record
// type the chat stream carries.
type textDelta struct {
	Type      string `json:"type"`
	TextDelta string `json:"textDelta"`
}

// setupSSEHeaders prepares the response for event-stream output.
func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeTextDelta emits one data record carrying a text fragment and flushes
// it so the client can render partial output immediately.
func writeTextDelta(w io.Writer, flusher http.Flusher, text string) error {
	payload, err := json.Marshal(textDelta{Type: "text-delta", TextDelta: text})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeEndMarker emits the end-of-stream marker.
func writeEndMarker(w io.Writer, flusher http.Flusher) error {
	if _, err := fmt.Fprintf(w, "data: %s\n", endMarker); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
