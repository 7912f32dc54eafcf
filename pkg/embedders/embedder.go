package embedders

import (
	"context"
	"fmt"

	"github.com/fitdesk/agentd/pkg/config"
)

// Embedder turns free text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	GetDimension() int

	GetModelName() string

	Close() error
}

// NewFromConfig constructs the configured embedder.
func NewFromConfig(cfg *config.EmbedderConfig) (Embedder, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAIEmbedderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}
}
