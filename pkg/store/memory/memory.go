// Package memory provides an in-process conversation store. It backs local
// development and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
)

// Store keeps conversations and messages in maps guarded by one mutex. It is
// safe for concurrent use. Messages stay in append order.
type Store struct {
	mu            sync.Mutex
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message
}

func New() *Store {
	return &Store{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

func (s *Store) CreateConversation(ctx context.Context, userID, simID, title string) (chat.Conversation, error) {
	now := time.Now()
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		SimID:     simID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
	return conv, nil
}

// ListConversations returns the user's conversations with the given sim, most
// recently updated first.
func (s *Store) ListConversations(ctx context.Context, userID, simID string) ([]chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []chat.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID && conv.SimID == simID {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}
	out := make([]chat.Message, len(s.messages[conversationID]))
	copy(out, s.messages[conversationID])
	return out, nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID string, role chat.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	s.messages[conversationID] = append(s.messages[conversationID],
		chat.Message{Role: role, Content: content, CreatedAt: time.Now()})
	conv.UpdatedAt = time.Now()
	s.conversations[conversationID] = conv
	return nil
}

func (s *Store) DeleteConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	return nil
}
