package config

import "fmt"

// RetrievalConfig configures semantic knowledge retrieval: the embedder that
// vectorizes queries and the vector store holding per-agent knowledge
// partitions.
type RetrievalConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`

	// TopK is the maximum number of snippets returned per search.
	TopK int `yaml:"top_k,omitempty"`

	// MinScore drops low-relevance matches before they reach the prompt.
	MinScore float32 `yaml:"min_score,omitempty"`
}

func (c *RetrievalConfig) SetDefaults() {
	c.Embedder.SetDefaults()
	c.VectorStore.SetDefaults()
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.MinScore == 0 {
		c.MinScore = 0.35
	}
}

func (c *RetrievalConfig) Validate() error {
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vector_store: %w", err)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive")
	}
	return nil
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// Type selects the embedder implementation. Only openai is supported.
	Type string `yaml:"type,omitempty"`

	Model string `yaml:"model,omitempty"`

	APIKey string `yaml:"api_key,omitempty"`

	Host string `yaml:"host,omitempty"`

	// Dimension of produced vectors. Defaults per known model.
	Dimension int `yaml:"dimension,omitempty"`

	// Timeout per request, in seconds.
	Timeout int `yaml:"timeout,omitempty"`

	MaxRetries int `yaml:"max_retries,omitempty"`
}

func (c *EmbedderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Host == "" {
		c.Host = "https://api.openai.com/v1"
	}
	if c.APIKey == "" {
		c.APIKey = ProviderAPIKeyFromEnv("openai")
	}
	if c.Dimension == 0 {
		switch c.Model {
		case "text-embedding-3-large":
			c.Dimension = 3072
		default:
			c.Dimension = 1536
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *EmbedderConfig) Validate() error {
	if c.Type != "openai" {
		return fmt.Errorf("unsupported embedder type %q", c.Type)
	}
	// The embedder credential is best-effort: retrieval degrades to empty
	// context when embedding fails, so an empty key is not fatal here.
	return nil
}

// VectorStoreConfig configures the vector store backend.
type VectorStoreConfig struct {
	// Type is qdrant (external, production) or chromem (embedded, dev/test).
	Type string `yaml:"type,omitempty"`

	Host   string `yaml:"host,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`

	// PersistPath enables file persistence for the chromem backend.
	PersistPath string `yaml:"persist_path,omitempty"`

	// Compress enables gzip persistence for chromem.
	Compress bool `yaml:"compress,omitempty"`
}

func (c *VectorStoreConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem"
	}
	if c.Type == "qdrant" {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 {
			c.Port = 6334
		}
	}
}

func (c *VectorStoreConfig) Validate() error {
	switch c.Type {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("unsupported vector store type %q (supported: qdrant, chromem)", c.Type)
	}
	return nil
}
