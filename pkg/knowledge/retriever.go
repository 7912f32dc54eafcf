// Package knowledge provides semantic retrieval over per-agent document
// partitions. Retrieval is best-effort: an answer without snippets beats no
// answer, so lookup failures degrade to an empty result instead of failing
// the invocation.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/databases"
	"github.com/fitdesk/agentd/pkg/embedders"
)

// Snippet is one retrieved document fragment.
type Snippet struct {
	ID      string
	Content string
	Score   float32
	Source  string
}

// Retriever embeds queries and searches the agent's vector partition.
type Retriever struct {
	embedder embedders.Embedder
	store    databases.VectorStore
	topK     int
	minScore float32
}

// NewRetriever wires an embedder and a vector store. Either may be nil, in
// which case every lookup returns no snippets.
func NewRetriever(embedder embedders.Embedder, store databases.VectorStore, cfg *config.RetrievalConfig) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     cfg.TopK,
		minScore: cfg.MinScore,
	}
}

// collectionName maps an agent to its isolated document partition.
func collectionName(agentID string) string {
	return "agent_" + agentID
}

// Retrieve returns up to TopK snippets scoring at or above the similarity
// floor, best match first. It never returns an error: embedding or search
// failures are logged and produce an empty result.
func (r *Retriever) Retrieve(ctx context.Context, agentID, query string) []Snippet {
	if r.embedder == nil || r.store == nil || query == "" {
		return nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("Knowledge retrieval degraded, query embedding failed",
			"agent", agentID, "error", err)
		return nil
	}

	results, err := r.store.Search(ctx, collectionName(agentID), vector, r.topK)
	if err != nil {
		slog.Warn("Knowledge retrieval degraded, vector search failed",
			"agent", agentID, "error", err)
		return nil
	}

	var snippets []Snippet
	for _, res := range results {
		if res.Score < r.minScore {
			continue
		}
		sn := Snippet{ID: res.ID, Content: res.Content, Score: res.Score}
		if src, ok := res.Metadata["source"].(string); ok {
			sn.Source = src
		}
		snippets = append(snippets, sn)
	}
	return snippets
}

// Upsert indexes one document into the agent's partition. Unlike Retrieve
// this is an ingestion path and errors surface to the caller.
func (r *Retriever) Upsert(ctx context.Context, agentID, docID, content string, metadata map[string]interface{}) error {
	if r.embedder == nil || r.store == nil {
		return fmt.Errorf("knowledge ingestion requires an embedder and a vector store")
	}
	if content == "" {
		return fmt.Errorf("document content is required")
	}

	vector, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", docID, err)
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	metadata["content"] = content

	if err := r.store.Upsert(ctx, collectionName(agentID), docID, vector, metadata); err != nil {
		return fmt.Errorf("failed to index document %s: %w", docID, err)
	}
	return nil
}

// Delete removes one document from the agent's partition.
func (r *Retriever) Delete(ctx context.Context, agentID, docID string) error {
	if r.store == nil {
		return fmt.Errorf("no vector store configured")
	}
	return r.store.Delete(ctx, collectionName(agentID), docID)
}

// DeleteAgent drops the agent's whole partition.
func (r *Retriever) DeleteAgent(ctx context.Context, agentID string) error {
	if r.store == nil {
		return fmt.Errorf("no vector store configured")
	}
	return r.store.DeleteCollection(ctx, collectionName(agentID))
}
