package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/types"
)

// State is the controller's streaming state.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
)

// SaveDelay is the quiet period between the last qualifying state change
// and the autosave it triggers.
const SaveDelay = 1500 * time.Millisecond

var (
	// ErrEmptyInput is returned when the submitted text trims to nothing.
	ErrEmptyInput = errors.New("empty input")
	// ErrStreaming is returned when a submit arrives while a stream is
	// already in flight.
	ErrStreaming = errors.New("stream in progress")
)

// ConversationSaver is the slice of the conversation repository the
// controller needs for autosave.
type ConversationSaver interface {
	Save(ctx context.Context, id uuid.UUID, messages []types.Message, userName *string)
	ActiveID() uuid.UUID
}

// Controller orchestrates one chat session: it owns the in-memory message
// list for the open conversation, drives the gateway stream, and schedules
// debounced saves. The message list is mutated only here; while streaming,
// the only permitted mutations are fragment appends and cancellation.
type Controller struct {
	stream       StreamFunc
	saver        ConversationSaver
	systemPrompt string
	logger       *logrus.Logger
	debounce     *Debouncer

	onFragment func(string)

	mu            sync.Mutex
	state         State
	messages      []types.Message
	userName      *string
	assistantOpen bool
	cancelStream  context.CancelFunc
	dropFragments bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithSaveDelay overrides the debounce quiet period.
func WithSaveDelay(delay time.Duration) Option {
	return func(c *Controller) {
		c.debounce = NewDebouncer(delay)
	}
}

// WithFragmentHandler registers a callback invoked for every applied
// fragment, in arrival order. Used by UI bindings to render partial text.
func WithFragmentHandler(fn func(string)) Option {
	return func(c *Controller) {
		c.onFragment = fn
	}
}

// WithSystemPrompt sets the system prompt sent with every stream request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Controller) {
		c.systemPrompt = prompt
	}
}

// NewController creates a chat session controller.
func NewController(stream StreamFunc, saver ConversationSaver, logger *logrus.Logger, opts ...Option) *Controller {
	c := &Controller{
		stream:   stream,
		saver:    saver,
		logger:   logger,
		state:    StateIdle,
		debounce: NewDebouncer(SaveDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current streaming state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the in-memory message list.
func (c *Controller) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SetMessages replaces the message list, typically after loading a saved
// conversation. Rejected while streaming.
func (c *Controller) SetMessages(messages []types.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStreaming {
		return ErrStreaming
	}
	c.messages = append([]types.Message(nil), messages...)
	return nil
}

// SetUserName sets the display label saved with the conversation.
func (c *Controller) SetUserName(name *string) {
	c.mu.Lock()
	c.userName = name
	c.mu.Unlock()
}

// Submit appends a user message and opens a stream for the assistant reply.
// It returns once the stream is started; fragments are applied as they
// arrive and observable via Messages. done, if non-nil, runs after the
// controller returns to idle.
func (c *Controller) Submit(ctx context.Context, input string, done func()) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.state == StateStreaming {
		c.mu.Unlock()
		return ErrStreaming
	}
	c.messages = append(c.messages, types.NewMessage(types.RoleUser, trimmed))
	history := make([]types.Message, len(c.messages))
	copy(history, c.messages)

	streamCtx, cancel := context.WithCancel(ctx)
	c.state = StateStreaming
	c.assistantOpen = false
	c.dropFragments = false
	c.cancelStream = cancel
	c.mu.Unlock()

	go c.run(streamCtx, history, done)
	return nil
}

// Cancel aborts an in-flight stream. The in-progress assistant message is
// finalized with whatever content was received; fragments still in flight
// are discarded.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	c.dropFragments = true
	cancel := c.cancelStream
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// run drives one stream to completion: fragments are applied in strict
// arrival order, then the controller returns to idle and schedules a save.
func (c *Controller) run(ctx context.Context, history []types.Message, done func()) {
	defer c.finalize(done)

	reader, err := c.stream(ctx, history, c.systemPrompt)
	if err != nil {
		c.logger.WithError(err).Error("failed to open chat stream")
		return
	}
	defer reader.Close()

	for reader.Next() {
		if !c.applyFragment(reader.Text()) {
			return
		}
	}
	if err := reader.Err(); err != nil && ctx.Err() == nil {
		c.logger.WithError(err).Error("chat stream read failed")
	}
}

// applyFragment appends one fragment to the in-progress assistant message,
// creating it lazily on the first fragment. Returns false once fragments
// are being dropped after cancellation.
func (c *Controller) applyFragment(text string) bool {
	c.mu.Lock()

	if c.dropFragments {
		c.mu.Unlock()
		return false
	}

	if !c.assistantOpen {
		c.messages = append(c.messages, types.Message{
			ID:   uuid.NewString(),
			Role: types.RoleAssistant,
			Parts: []types.Part{
				{Type: types.PartTypeText, Text: text},
			},
		})
		c.assistantOpen = true
	} else {
		last := &c.messages[len(c.messages)-1]
		last.Parts[len(last.Parts)-1].Text += text
	}
	c.mu.Unlock()

	if c.onFragment != nil {
		c.onFragment(text)
	}
	return true
}

// finalize transitions back to idle. Leaving the streaming state is the
// sole trigger for scheduling a save.
func (c *Controller) finalize(done func()) {
	c.mu.Lock()
	c.state = StateIdle
	c.cancelStream = nil
	c.assistantOpen = false
	c.mu.Unlock()

	c.scheduleSave()
	if done != nil {
		done()
	}
}

// Flush runs any pending debounced save immediately. Callers use it on
// shutdown so an exit within the quiet period cannot drop the final
// exchange.
func (c *Controller) Flush(ctx context.Context) {
	if c.debounce.Cancel() {
		c.saveNow(ctx)
	}
}

// scheduleSave arms the debounced save. The save captures the message list
// at fire time, so changes within the quiet period supersede the pending
// snapshot instead of stacking a second save.
func (c *Controller) scheduleSave() {
	if c.saver.ActiveID() == uuid.Nil || len(c.Messages()) == 0 {
		return
	}

	c.debounce.Arm(func() {
		c.saveNow(context.Background())
	})
}

func (c *Controller) saveNow(ctx context.Context) {
	id := c.saver.ActiveID()
	if id == uuid.Nil {
		return
	}
	messages := c.Messages()
	if len(messages) == 0 {
		return
	}
	c.mu.Lock()
	userName := c.userName
	c.mu.Unlock()
	c.saver.Save(ctx, id, messages, userName)
}
