package config

import (
	"fmt"
	"os"
)

// LLMProviderConfig configures the completion client.
//
// A missing API key is a startup-time fatal configuration error: the
// orchestrator is never constructed without a working completion credential.
type LLMProviderConfig struct {
	// Type selects the provider implementation (openai, anthropic).
	Type string `yaml:"type,omitempty"`

	// Model identifier sent with every request. Agents may override it.
	Model string `yaml:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion; falls back to the
	// provider's conventional environment variable.
	APIKey string `yaml:"api_key,omitempty"`

	// Host overrides the default API endpoint.
	Host string `yaml:"host,omitempty"`

	Temperature *float64 `yaml:"temperature,omitempty"`

	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout per request, in seconds.
	Timeout int `yaml:"timeout,omitempty"`

	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryDelay is the base backoff, in seconds.
	RetryDelay int `yaml:"retry_delay,omitempty"`
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}

	if c.Model == "" {
		switch c.Type {
		case "anthropic":
			c.Model = "claude-sonnet-4-20250514"
		default:
			c.Model = "gpt-4o"
		}
	}

	if c.Host == "" {
		switch c.Type {
		case "anthropic":
			c.Host = "https://api.anthropic.com"
		default:
			c.Host = "https://api.openai.com/v1"
		}
	}

	if c.APIKey == "" {
		c.APIKey = ProviderAPIKeyFromEnv(c.Type)
	}

	if c.Temperature == nil {
		temp := 0.7
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2
	}
}

func (c *LLMProviderConfig) Validate() error {
	switch c.Type {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid provider type %q (valid: openai, anthropic)", c.Type)
	}

	if c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q (set it in config or the provider's environment variable)", c.Type)
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}

	return nil
}

// ProviderAPIKeyFromEnv returns the conventional credential variable for a
// provider type.
func ProviderAPIKeyFromEnv(providerType string) string {
	switch providerType {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
