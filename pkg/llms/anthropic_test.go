package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitdesk/agentd/pkg/config"
)

func anthropicTestConfig(host string) *config.LLMProviderConfig {
	temp := 0.5
	return &config.LLMProviderConfig{
		Type:        "anthropic",
		Model:       "claude-sonnet-4-20250514",
		APIKey:      "test-key",
		Host:        host,
		Temperature: &temp,
		MaxTokens:   256,
		Timeout:     5,
	}
}

// rawAnthropicRequest mirrors the wire shape loosely for assertions.
type rawAnthropicRequest struct {
	Model    string `json:"model"`
	System   string `json:"system"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	Tools []anthropicTool `json:"tools"`
}

func TestAnthropicGenerateCombinesBlocks(t *testing.T) {
	var captured rawAnthropicRequest
	var apiKey, version string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{
				{Type: "text", Text: "Let me check that. "},
				{Type: "tool_use", ID: "toolu-1", Name: "check_availability",
					Input: map[string]interface{}{"date": "2026-03-02"}},
			},
			StopReason: "tool_use",
			Usage:      anthropicUsage{InputTokens: 10, OutputTokens: 5},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProviderFromConfig(anthropicTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewAnthropicProviderFromConfig: %v", err)
	}

	turn, err := provider.Generate(context.Background(), "You answer for the gym.",
		[]Message{{Role: RoleUser, Content: "any yoga on monday?"}},
		[]ToolDefinition{{Name: "check_availability", Parameters: map[string]interface{}{"type": "object"}}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if apiKey != "test-key" || version != anthropicVersion {
		t.Errorf("headers: x-api-key=%q anthropic-version=%q", apiKey, version)
	}
	if captured.System != "You answer for the gym." {
		t.Errorf("system = %q, want top-level field", captured.System)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].InputSchema == nil {
		t.Errorf("tools = %+v", captured.Tools)
	}
	if turn.Content != "Let me check that. " {
		t.Errorf("content = %q", turn.Content)
	}
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Name != "check_availability" {
		t.Errorf("tool calls = %+v", turn.ToolCalls)
	}
	if turn.ToolCalls[0].Arguments["date"] != "2026-03-02" {
		t.Errorf("arguments = %v", turn.ToolCalls[0].Arguments)
	}
	if turn.TokensUsed != 15 {
		t.Errorf("TokensUsed = %d", turn.TokensUsed)
	}
}

func TestAnthropicToolResultsBecomeUserBlocks(t *testing.T) {
	provider, err := NewAnthropicProviderFromConfig(anthropicTestConfig("http://unused"))
	if err != nil {
		t.Fatalf("NewAnthropicProviderFromConfig: %v", err)
	}

	history := []Message{
		{Role: RoleUser, Content: "book me in"},
		{Role: RoleAssistant, Content: "On it.", ToolCalls: []ToolCall{
			{ID: "toolu-1", Name: "book_class", Arguments: map[string]interface{}{"session_id": "s-1"}},
		}},
		{Role: RoleTool, ToolCallID: "toolu-1", Name: "book_class", Content: "Booked Dana into Yoga."},
	}
	req := provider.buildRequest("persona", history, nil)

	if len(req.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(req.Messages))
	}
	if req.Messages[1].Role != "assistant" {
		t.Errorf("messages[1].Role = %s", req.Messages[1].Role)
	}
	blocks, ok := req.Messages[1].Content.([]anthropicContent)
	if !ok || len(blocks) != 2 || blocks[0].Type != "text" || blocks[1].Type != "tool_use" {
		t.Fatalf("assistant blocks = %+v", req.Messages[1].Content)
	}

	if req.Messages[2].Role != "user" {
		t.Errorf("tool result role = %s, want user", req.Messages[2].Role)
	}
	resultBlocks, ok := req.Messages[2].Content.([]anthropicContent)
	if !ok || len(resultBlocks) != 1 {
		t.Fatalf("tool result blocks = %+v", req.Messages[2].Content)
	}
	if resultBlocks[0].Type != "tool_result" || resultBlocks[0].ToolUseID != "toolu-1" {
		t.Errorf("tool result = %+v", resultBlocks[0])
	}
}

func TestAnthropicRequiresAPIKey(t *testing.T) {
	cfg := anthropicTestConfig("http://unused")
	cfg.APIKey = ""
	if _, err := NewAnthropicProviderFromConfig(cfg); err == nil {
		t.Error("expected constructor error without credential")
	}
}

func TestRegistryForModelFallsBackToDefault(t *testing.T) {
	registry := NewProviderRegistry()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIResponse{})
	}))
	defer server.Close()

	if _, err := registry.CreateFromConfig(DefaultProviderName, openAITestConfig(server.URL)); err != nil {
		t.Fatalf("CreateFromConfig: %v", err)
	}

	provider, err := registry.ForModel("some-unregistered-model")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}
	if provider.GetModelName() != "gpt-4o" {
		t.Errorf("fallback provider model = %s", provider.GetModelName())
	}

	if _, err := NewProviderRegistry().ForModel("anything"); err == nil {
		t.Error("expected error when no default provider is registered")
	}
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	cfg := openAITestConfig("http://unused")
	cfg.Type = "oracle"
	if _, err := NewProviderRegistry().CreateFromConfig(DefaultProviderName, cfg); err == nil {
		t.Error("expected error for unsupported provider type")
	}
}
