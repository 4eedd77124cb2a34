package providers

import (
	"testing"

	"github.com/sciencemonk/talktomysim-sub002/pkg/ai"
	"github.com/sciencemonk/talktomysim-sub002/pkg/config"
)

func TestNewOpenAIProviderRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	_, err := NewOpenAIProvider(ai.ProviderConfig{Type: ai.ProviderOpenAI, Config: cfg})
	if err == nil {
		t.Error("expected error for missing api key")
	}
}

func TestOpenAIBuildChatParams(t *testing.T) {
	p := &OpenAIProvider{
		defaultModel:       "gpt-4o",
		defaultTemperature: 0.7,
		defaultMaxTokens:   2000,
	}

	params, err := p.buildChatParams(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("buildChatParams: %v", err)
	}
	if string(params.Model) != "gpt-4o" {
		t.Errorf("model = %q", params.Model)
	}
	if len(params.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(params.Messages))
	}
	if params.Temperature.Value != 0.7 {
		t.Errorf("temperature = %v", params.Temperature.Value)
	}
	if params.MaxTokens.Value != 2000 {
		t.Errorf("max tokens = %v", params.MaxTokens.Value)
	}
}

func TestOpenAIBuildChatParamsOverrides(t *testing.T) {
	p := &OpenAIProvider{defaultModel: "gpt-4o", defaultTemperature: 0.7}

	temp := 1.2
	tokens := 64
	params, err := p.buildChatParams(ai.ChatRequest{
		Model:       "gpt-4o-mini",
		Messages:    []ai.Message{{Role: "user", Content: "hi"}},
		Temperature: &temp,
		MaxTokens:   &tokens,
	})
	if err != nil {
		t.Fatalf("buildChatParams: %v", err)
	}
	if string(params.Model) != "gpt-4o-mini" {
		t.Errorf("model = %q", params.Model)
	}
	if params.Temperature.Value != 1.2 {
		t.Errorf("temperature = %v", params.Temperature.Value)
	}
	if params.MaxTokens.Value != 64 {
		t.Errorf("max tokens = %v", params.MaxTokens.Value)
	}
}

func TestOpenAIBuildChatParamsRejectsUnknownRole(t *testing.T) {
	p := &OpenAIProvider{defaultModel: "gpt-4o"}
	_, err := p.buildChatParams(ai.ChatRequest{
		Messages: []ai.Message{{Role: "narrator", Content: "hi"}},
	})
	if err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestGoogleBuildRequest(t *testing.T) {
	p := &GoogleProvider{
		defaultModel:       "gemini-3-flash-preview",
		defaultTemperature: 0.7,
		defaultMaxTokens:   2000,
	}

	model, contents, cfg, err := p.buildRequest(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if model != "gemini-3-flash-preview" {
		t.Errorf("model = %q", model)
	}
	if len(contents) != 2 {
		t.Fatalf("contents = %d, want 2 (system folded into instruction)", len(contents))
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be terse" {
		t.Error("system message not folded into system instruction")
	}
	if cfg.ThinkingConfig == nil || cfg.ThinkingConfig.ThinkingBudget == nil || *cfg.ThinkingConfig.ThinkingBudget != 0 {
		t.Error("thinking budget not zeroed")
	}
	if cfg.MaxOutputTokens != 2000 {
		t.Errorf("max output tokens = %d", cfg.MaxOutputTokens)
	}
}

func TestGoogleBuildRequestRequiresMessages(t *testing.T) {
	p := &GoogleProvider{defaultModel: "gemini-3-flash-preview"}
	if _, _, _, err := p.buildRequest(ai.ChatRequest{}); err == nil {
		t.Error("expected error for empty messages")
	}
	if _, _, _, err := p.buildRequest(ai.ChatRequest{
		Messages: []ai.Message{{Role: "system", Content: "only system"}},
	}); err == nil {
		t.Error("expected error when no user or assistant turns remain")
	}
}
