package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitdesk/agentd/pkg/config"
)

func openAITestConfig(host string) *config.LLMProviderConfig {
	temp := 0.2
	return &config.LLMProviderConfig{
		Type:        "openai",
		Model:       "gpt-4o",
		APIKey:      "test-key",
		Host:        host,
		Temperature: &temp,
		MaxTokens:   256,
		Timeout:     5,
	}
}

func TestOpenAIGenerateText(t *testing.T) {
	var captured openAIRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{
				Message:      openAIMessage{Role: "assistant", Content: "We open at 6am."},
				FinishReason: "stop",
			}},
			Usage: openAIUsage{TotalTokens: 42},
		})
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(openAITestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProviderFromConfig: %v", err)
	}

	turn, err := provider.Generate(context.Background(), "You answer for the gym.",
		[]Message{{Role: RoleUser, Content: "when do you open?"}}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if turn.Content != "We open at 6am." || turn.HasToolCalls() {
		t.Errorf("turn = %+v", turn)
	}
	if turn.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d", turn.TokensUsed)
	}
	if auth != "Bearer test-key" {
		t.Errorf("auth header = %q", auth)
	}
	if captured.Model != "gpt-4o" || captured.Temperature != 0.2 {
		t.Errorf("request = %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != RoleSystem {
		t.Errorf("messages = %+v, want system prompt first", captured.Messages)
	}
}

func TestOpenAIGenerateToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "check_availability" {
			t.Errorf("advertised tools = %+v", req.Tools)
		}
		json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{
				Message: openAIMessage{
					Role: "assistant",
					ToolCalls: []openAIToolCall{{
						ID:   "call-1",
						Type: "function",
						Function: openAIFunctionCall{
							Name:      "check_availability",
							Arguments: `{"date":"2026-03-02"}`,
						},
					}},
				},
				FinishReason: "tool_calls",
			}},
		})
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(openAITestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProviderFromConfig: %v", err)
	}

	turn, err := provider.Generate(context.Background(), "", nil, []ToolDefinition{{
		Name:        "check_availability",
		Description: "List open sessions.",
		Parameters:  map[string]interface{}{"type": "object"},
	}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !turn.HasToolCalls() {
		t.Fatalf("turn = %+v, want tool calls", turn)
	}
	call := turn.ToolCalls[0]
	if call.ID != "call-1" || call.Name != "check_availability" {
		t.Errorf("call = %+v", call)
	}
	if call.Arguments["date"] != "2026-03-02" {
		t.Errorf("arguments = %v, want the JSON string decoded", call.Arguments)
	}
}

func TestOpenAIGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid model"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(openAITestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProviderFromConfig: %v", err)
	}

	if _, err := provider.Generate(context.Background(), "", nil, nil); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	cfg := openAITestConfig("http://unused")
	cfg.APIKey = ""
	if _, err := NewOpenAIProviderFromConfig(cfg); err == nil {
		t.Error("expected constructor error without credential")
	}
}
