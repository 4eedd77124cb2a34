// Package rest implements the conversation store against the sim platform's
// HTTP API.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/config"
)

const defaultTimeout = 15

type conversationPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SimID     string    `json:"sim_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messagePayload struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store talks to the platform's conversation endpoints. All methods honor the
// request context and the client timeout from configuration.
type Store struct {
	client *resty.Client
}

func New(cfg config.StoreConfig) (*Store, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("store api_url is required")
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(time.Duration(timeout) * time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Store{client: client}, nil
}

func (s *Store) CreateConversation(ctx context.Context, userID, simID, title string) (chat.Conversation, error) {
	var out conversationPayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"user_id": userID, "sim_id": simID, "title": title}).
		SetResult(&out).
		Post("/conversations")
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}
	if resp.IsError() {
		return chat.Conversation{}, fmt.Errorf("creating conversation: status %d: %s", resp.StatusCode(), resp.String())
	}
	return toConversation(out), nil
}

func (s *Store) ListConversations(ctx context.Context, userID, simID string) ([]chat.Conversation, error) {
	var out []conversationPayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"user_id": userID, "sim_id": simID}).
		SetResult(&out).
		Get("/conversations")
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("listing conversations: status %d: %s", resp.StatusCode(), resp.String())
	}
	convs := make([]chat.Conversation, 0, len(out))
	for _, p := range out {
		convs = append(convs, toConversation(p))
	}
	return convs, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	var out []messagePayload
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/conversations/%s/messages", conversationID))
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("listing messages: status %d: %s", resp.StatusCode(), resp.String())
	}
	msgs := make([]chat.Message, 0, len(out))
	for _, p := range out {
		msgs = append(msgs, chat.Message{
			Role:      chat.Role(p.Role),
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
		})
	}
	return msgs, nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID string, role chat.Role, content string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"role": string(role), "content": content}).
		Post(fmt.Sprintf("/conversations/%s/messages", conversationID))
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("appending message: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *Store) DeleteConversation(ctx context.Context, conversationID string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/conversations/%s", conversationID))
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("deleting conversation: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func toConversation(p conversationPayload) chat.Conversation {
	return chat.Conversation{
		ID:        p.ID,
		UserID:    p.UserID,
		SimID:     p.SimID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
