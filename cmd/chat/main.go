package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/session"
	"github.com/nothingmachine/chat-backend/internal/types"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "chat backend base URL")
	userName := flag.String("name", "", "display name saved with the conversation")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	logger.SetLevel(logrus.WarnLevel)

	ctx := context.Background()
	saver := newRemoteSaver(*serverURL, logger)

	if id, err := saver.createConversation(ctx, *userName); err != nil {
		fmt.Fprintln(os.Stderr, "persistence unavailable; this session will not be saved")
	} else {
		saver.setActive(id)
	}

	client := session.NewClient(*serverURL)
	ctrl := session.NewController(client.Stream, saver, logger,
		session.WithFragmentHandler(func(text string) {
			fmt.Print(text)
		}),
	)
	if *userName != "" {
		ctrl.SetUserName(userName)
	}

	fmt.Println("nothing-machine chat. Empty line quits.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()
		if input == "" {
			break
		}

		done := make(chan struct{})
		if err := ctrl.Submit(ctx, input, func() { close(done) }); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		<-done
		fmt.Println()
	}

	// Quitting inside the quiet period must not drop the last exchange.
	ctrl.Flush(ctx)
}

// remoteSaver implements session.ConversationSaver over the backend's REST
// surface, mirroring what the browser client does against the repository.
type remoteSaver struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger

	mu       sync.Mutex
	activeID uuid.UUID
}

func newRemoteSaver(baseURL string, logger *logrus.Logger) *remoteSaver {
	return &remoteSaver{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (r *remoteSaver) setActive(id uuid.UUID) {
	r.mu.Lock()
	r.activeID = id
	r.mu.Unlock()
}

// ActiveID returns the active conversation id, uuid.Nil when the session is
// unsaved.
func (r *remoteSaver) ActiveID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Save pushes the full message array; failures are logged only, matching
// the fire-and-forget persistence contract.
func (r *remoteSaver) Save(ctx context.Context, id uuid.UUID, messages []types.Message, userName *string) {
	body, err := json.Marshal(map[string]any{
		"messages":  messages,
		"user_name": userName,
	})
	if err != nil {
		r.logger.WithError(err).Error("failed to encode save request")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.baseURL+"/api/conversations/"+id.String(), bytes.NewReader(body))
	if err != nil {
		r.logger.WithError(err).Error("failed to build save request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.WithError(err).Error("failed to save conversation")
		return
	}
	resp.Body.Close()
}

func (r *remoteSaver) createConversation(ctx context.Context, userName string) (uuid.UUID, error) {
	payload := map[string]any{}
	if userName != "" {
		payload["user_name"] = userName
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/conversations", bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return uuid.Nil, err
	}
	defer resp.Body.Close()

	var out struct {
		ID *uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return uuid.Nil, err
	}
	if out.ID == nil {
		return uuid.Nil, fmt.Errorf("persistence unavailable")
	}
	return *out.ID, nil
}

var _ session.ConversationSaver = (*remoteSaver)(nil)
