package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root process configuration for agentd.
//
// One process serves many tenants; everything tenant- or agent-specific
// (persona, enabled tools, retrieval sources, response delay) lives in the
// store and is loaded per invocation. Config only holds process-wide wiring:
// listeners, credentials, backends.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	LLM          LLMProviderConfig  `yaml:"llm"`
	Store        StoreConfig        `yaml:"store"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Delivery     DeliveryConfig     `yaml:"delivery"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// OrchestratorConfig bounds a single invocation of the reply pipeline.
type OrchestratorConfig struct {
	// MaxIterations caps completion calls per invocation.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// HistoryWindow is how many stored messages are reloaded per invocation.
	HistoryWindow int `yaml:"history_window,omitempty"`

	// HistoryTokenBudget trims the working history before each completion call.
	// Zero disables trimming.
	HistoryTokenBudget int `yaml:"history_token_budget,omitempty"`

	// TokenizerEncoding is the tiktoken encoding used for the budget.
	TokenizerEncoding string `yaml:"tokenizer_encoding,omitempty"`

	// CompletionTimeout is the per-call deadline for the completion client,
	// in seconds.
	CompletionTimeout int `yaml:"completion_timeout,omitempty"`

	// RetrievalTimeout is the deadline for context building (retriever plus
	// structured providers), in seconds.
	RetrievalTimeout int `yaml:"retrieval_timeout,omitempty"`
}

func (c *OrchestratorConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 5
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = 20
	}
	if c.TokenizerEncoding == "" {
		c.TokenizerEncoding = "cl100k_base"
	}
	if c.CompletionTimeout == 0 {
		c.CompletionTimeout = 60
	}
	if c.RetrievalTimeout == 0 {
		c.RetrievalTimeout = 10
	}
}

func (c *OrchestratorConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history_window must be positive")
	}
	return nil
}

// LoadFromFile reads, env-expands, defaults and validates a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	expanded := ExpandEnvVarsInData(raw)

	// Round-trip through YAML so the expanded tree lands in typed structs.
	expandedBytes, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode expanded config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(expandedBytes, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.LLM.SetDefaults()
	c.Store.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Delivery.SetDefaults()
	c.Orchestrator.SetDefaults()
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if err := c.Delivery.Validate(); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	if err := c.Orchestrator.Validate(); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	return nil
}
