package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sciencemonk/talktomysim-sub002/pkg/ai"
)

var (
	// ErrEmptyMessage is returned when Send is called with only whitespace.
	// Callers should treat it as a no-op rather than surface it.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoConversation is returned when Send is called before a
	// conversation exists.
	ErrNoConversation = errors.New("no active conversation")

	// ErrTurnInFlight is returned when Send is called while a previous
	// turn is still streaming.
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// State tracks where the session is in a send/stream/finalize turn.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// Event is one observable update from a streaming turn. Delta carries new
// assistant content, Notice carries a non-fatal warning (such as a failed
// persistence call), Err reports a fatal stream error, and Done marks the
// final event before the channel closes.
type Event struct {
	Delta  string
	Notice string
	Err    error
	Done   bool
}

// A turn sends at most this many trailing messages to the provider.
const maxHistoryMessages = 40

const defaultConversationTitle = "New conversation"

// Session orchestrates one user's conversation with a sim: it owns the
// in-memory transcript, drives the provider stream, and keeps the store in
// sync. Methods are safe for concurrent use, but only one turn may be in
// flight at a time.
type Session struct {
	mu       sync.Mutex
	store    ConversationStore
	provider ai.Provider
	userID   string
	sim      SimProfile

	conversationID string
	messages       []Message
	state          State
}

func NewSession(store ConversationStore, provider ai.Provider, userID string, sim SimProfile) *Session {
	return &Session{
		store:    store,
		provider: provider,
		userID:   userID,
		sim:      sim,
	}
}

// State reports the current turn state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConversationID reports the active conversation, or "" before Start.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a snapshot of the active transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Start ensures the session has an active conversation, creating one when
// needed.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	active := s.conversationID
	s.mu.Unlock()
	if active != "" {
		return nil
	}
	return s.NewConversation(ctx)
}

// NewConversation creates a fresh conversation and makes it active. The sim's
// welcome message, when configured, seeds the transcript client-side only; it
// is never written to the store.
func (s *Session) NewConversation(ctx context.Context) error {
	conv, err := s.store.CreateConversation(ctx, s.userID, s.sim.ID, defaultConversationTitle)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrTurnInFlight
	}
	s.conversationID = conv.ID
	s.messages = nil
	if s.sim.WelcomeMessage != "" {
		s.messages = []Message{{
			Role:      RoleAssistant,
			Content:   s.sim.WelcomeMessage,
			CreatedAt: time.Now(),
		}}
	}
	slog.Debug("conversation_started", "conversation_id", conv.ID)
	return nil
}

// Switch loads a stored conversation and makes it active.
func (s *Session) Switch(ctx context.Context, conversationID string) error {
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrTurnInFlight
	}
	s.conversationID = conversationID
	s.messages = msgs
	slog.Debug("conversation_switched", "conversation_id", conversationID, "message_count", len(msgs))
	return nil
}

// Conversations lists the user's conversations with this sim, most recently
// updated first.
func (s *Session) Conversations(ctx context.Context) ([]Conversation, error) {
	return s.store.ListConversations(ctx, s.userID, s.sim.ID)
}

// Delete removes a conversation from the store. Deleting the active
// conversation starts a fresh one so the session never points at a dead ID.
func (s *Session) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	active := s.conversationID == conversationID
	s.mu.Unlock()

	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}
	slog.Debug("conversation_deleted", "conversation_id", conversationID, "was_active", active)
	if active {
		s.mu.Lock()
		s.conversationID = ""
		s.messages = nil
		s.mu.Unlock()
		return s.NewConversation(ctx)
	}
	return nil
}

// Send appends the user's message to the transcript and starts a streaming
// turn. It returns a channel of events that closes when the turn finishes;
// transcript updates are applied internally, so callers re-read Messages on
// each event. Whitespace-only input returns ErrEmptyMessage and changes
// nothing; a second Send while a turn is running returns ErrTurnInFlight.
func (s *Session) Send(ctx context.Context, text string) (<-chan Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.conversationID == "" {
		s.mu.Unlock()
		return nil, ErrNoConversation
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.state = StateSending
	s.messages = append(s.messages, Message{
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	})
	convID := s.conversationID
	history := s.providerHistoryLocked()
	s.mu.Unlock()

	events := make(chan Event, 16)
	go s.runTurn(ctx, convID, text, history, events)
	return events, nil
}

// providerHistoryLocked builds the request messages from the trailing
// transcript. Incomplete replies are still included so the sim sees what the
// user saw. Caller holds s.mu.
func (s *Session) providerHistoryLocked() []ai.Message {
	msgs := s.messages
	if len(msgs) > maxHistoryMessages {
		msgs = msgs[len(msgs)-maxHistoryMessages:]
	}
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func (s *Session) runTurn(ctx context.Context, convID, userText string, history []ai.Message, events chan<- Event) {
	defer close(events)

	// Persist the user message before the request; a store failure is
	// reported but never blocks the turn.
	if err := s.store.AppendMessage(ctx, convID, RoleUser, userText); err != nil {
		slog.Warn("user_message_persist_failed", "conversation_id", convID, "error", err)
		events <- Event{Notice: "message could not be saved"}
	}

	stream, err := s.provider.CreateChatCompletionStream(ctx, ai.ChatRequest{Messages: history})
	if err != nil {
		slog.Error("chat_stream_start_failed", "conversation_id", convID, "error", err)
		s.setState(StateIdle)
		events <- Event{Err: err, Done: true}
		return
	}
	defer stream.Close()
	s.setState(StateStreaming)

	start := time.Now()
	deltas := 0
	for stream.Next() {
		delta := stream.Content()
		if delta == "" {
			continue
		}
		deltas++
		s.mu.Lock()
		s.messages = ApplyDelta(s.messages, delta)
		s.mu.Unlock()
		events <- Event{Delta: delta}
	}

	streamErr := stream.Err()
	if streamErr == nil && ctx.Err() != nil {
		streamErr = ctx.Err()
	}
	s.setState(StateFinalizing)

	if streamErr != nil {
		slog.Warn("chat_stream_interrupted",
			"conversation_id", convID,
			"deltas", deltas,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", streamErr)
		s.mu.Lock()
		s.messages = MarkIncomplete(s.messages)
		s.mu.Unlock()
		s.setState(StateIdle)
		events <- Event{Err: streamErr, Done: true}
		return
	}

	if final := s.lastAssistantContent(); final != "" {
		if err := s.store.AppendMessage(ctx, convID, RoleAssistant, final); err != nil {
			slog.Warn("assistant_message_persist_failed", "conversation_id", convID, "error", err)
			events <- Event{Notice: "reply could not be saved"}
		}
	}
	slog.Debug("chat_stream_complete",
		"conversation_id", convID,
		"deltas", deltas,
		"elapsed_ms", time.Since(start).Milliseconds())
	s.setState(StateIdle)
	events <- Event{Done: true}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) lastAssistantContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.messages)
	if n == 0 || s.messages[n-1].Role != RoleAssistant {
		return ""
	}
	return s.messages[n-1].Content
}
