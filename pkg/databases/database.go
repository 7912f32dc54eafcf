package databases

import (
	"context"
	"fmt"

	"github.com/fitdesk/agentd/pkg/config"
)

// VectorStore is the backend holding per-agent knowledge partitions.
// Collections are keyed by agent; documents carry pre-computed embeddings.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error

	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)

	Delete(ctx context.Context, collection string, id string) error

	DeleteCollection(ctx context.Context, collection string) error

	Close() error
}

// SearchResult is one similarity match, ordered by descending score.
type SearchResult struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewFromConfig constructs the configured vector store backend.
func NewFromConfig(cfg *config.VectorStoreConfig) (VectorStore, error) {
	switch cfg.Type {
	case "qdrant":
		return NewQdrantStoreFromConfig(cfg)
	case "chromem":
		return NewChromemStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
}
