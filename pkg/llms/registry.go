package llms

import (
	"context"
	"fmt"

	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/registry"
)

// Provider is the single capability the orchestrator needs from a language
// model: one completion over a system prompt, a message history and a set of
// callable tool schemas.
type Provider interface {
	// Generate performs one non-streaming completion. The returned turn
	// carries either plain content or requested tool calls.
	Generate(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (Turn, error)

	GetModelName() string

	Close() error
}

// ProviderRegistry holds named completion providers. The process config
// registers one under DefaultProviderName; agents whose model identifier
// matches a registered name get that provider instead.
type ProviderRegistry struct {
	*registry.BaseRegistry[Provider]
}

// DefaultProviderName is the registry key for the process-wide provider.
const DefaultProviderName = "default"

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		BaseRegistry: registry.NewBaseRegistry[Provider](),
	}
}

func (r *ProviderRegistry) RegisterProvider(name string, provider Provider) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	return r.Register(name, provider)
}

// CreateFromConfig constructs a provider from config and registers it.
// A missing credential fails here, at startup, not per request.
func (r *ProviderRegistry) CreateFromConfig(name string, cfg *config.LLMProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config cannot be nil")
	}

	var provider Provider
	var err error

	switch cfg.Type {
	case "openai":
		provider, err = NewOpenAIProviderFromConfig(cfg)
	case "anthropic":
		provider, err = NewAnthropicProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s (supported: openai, anthropic)", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create completion provider: %w", err)
	}

	if err := r.RegisterProvider(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register completion provider: %w", err)
	}

	return provider, nil
}

// ForModel resolves the provider for an agent's model identifier, falling
// back to the default provider.
func (r *ProviderRegistry) ForModel(model string) (Provider, error) {
	if model != "" {
		if provider, exists := r.Get(model); exists {
			return provider, nil
		}
	}
	provider, exists := r.Get(DefaultProviderName)
	if !exists {
		return nil, fmt.Errorf("no default completion provider registered")
	}
	return provider, nil
}
