package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sciencemonk/talktomysim-sub002/pkg/ai"
)

const simDefaultTimeout = 60

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderSim,
		Name:        "Sim platform",
		Description: "Streamed chat against a hosted sim persona endpoint",
		RequiresKey: false,
	}, NewSimProvider)
}

// SimProvider implements the Provider interface against the sim platform's
// streamed chat-completion endpoint.
type SimProvider struct {
	apiURL     string
	simID      string
	apiKey     string
	userID     string
	httpClient *http.Client
}

// NewSimProvider creates a new sim platform provider from config.
func NewSimProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	providerCfg := cfg.Config.Providers.Sim

	if strings.TrimSpace(providerCfg.APIURL) == "" {
		return nil, fmt.Errorf("sim api_url is required")
	}
	if strings.TrimSpace(providerCfg.SimID) == "" {
		return nil, fmt.Errorf("sim_id is required")
	}

	timeout := providerCfg.APITimeoutSeconds
	if timeout <= 0 {
		timeout = simDefaultTimeout
	}

	return &SimProvider{
		apiURL:     providerCfg.APIURL,
		simID:      providerCfg.SimID,
		apiKey:     providerCfg.APIKey,
		userID:     cfg.Config.UserID,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

// simChatRequest is the request body for the sim chat endpoint.
type simChatRequest struct {
	Messages []simMessage `json:"messages"`
	SimID    string       `json:"sim_id"`
	UserID   string       `json:"user_id,omitempty"`
}

type simMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateChatCompletion sends a chat request and accumulates the streamed
// response into a single completion.
func (p *SimProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	stream, err := p.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		sb.WriteString(stream.Content())
	}
	if err := stream.Err(); err != nil {
		return ai.ChatResponse{}, err
	}

	return ai.ChatResponse{
		Content: sb.String(),
		Model:   p.simID,
	}, nil
}

// CreateChatCompletionStream sends a chat request and returns the streamed
// response.
func (p *SimProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	messages := make([]simMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, simMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(simChatRequest{
		Messages: messages,
		SimID:    p.simID,
		UserID:   p.userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	slog.Debug("sim_chat_request",
		"sim_id", p.simID,
		"message_count", len(messages),
		"anonymous", p.userID == "",
	)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("sim API error (status %d): %s", resp.StatusCode, string(errBody))
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("sim API returned an empty response body")
	}

	return newSimStream(resp.Body), nil
}

// Ensure interface compliance
var _ ai.Provider = (*SimProvider)(nil)
