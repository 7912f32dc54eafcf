package knowledge

import (
	"context"
	"fmt"
	"testing"

	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/databases"
)

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedding service unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) GetDimension() int    { return 3 }
func (f *fakeEmbedder) GetModelName() string { return "fake-embedder" }
func (f *fakeEmbedder) Close() error         { return nil }

type fakeVectorStore struct {
	fail     bool
	results  []databases.SearchResult
	searched []string // collections queried
}

func (f *fakeVectorStore) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]interface{}) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]databases.SearchResult, error) {
	f.searched = append(f.searched, collection)
	if f.fail {
		return nil, fmt.Errorf("search failed")
	}
	return f.results, nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, collection, id string) error { return nil }
func (f *fakeVectorStore) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}
func (f *fakeVectorStore) Close() error { return nil }

func testConfig() *config.RetrievalConfig {
	cfg := &config.RetrievalConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestRetrieveFiltersByMinScore(t *testing.T) {
	store := &fakeVectorStore{results: []databases.SearchResult{
		{ID: "d1", Score: 0.92, Content: "opening hours"},
		{ID: "d2", Score: 0.40, Content: "cancellation policy"},
		{ID: "d3", Score: 0.20, Content: "unrelated"},
	}}
	r := NewRetriever(&fakeEmbedder{}, store, testConfig())

	snippets := r.Retrieve(context.Background(), "agent-1", "when are you open")
	if len(snippets) != 2 {
		t.Fatalf("got %d snippets, want 2 above the 0.35 floor", len(snippets))
	}
	if snippets[0].ID != "d1" || snippets[1].ID != "d2" {
		t.Errorf("snippets = %v", snippets)
	}
}

func TestRetrieveIsolatesAgentPartitions(t *testing.T) {
	store := &fakeVectorStore{}
	r := NewRetriever(&fakeEmbedder{}, store, testConfig())

	r.Retrieve(context.Background(), "agent-1", "q")
	r.Retrieve(context.Background(), "agent-2", "q")

	if len(store.searched) != 2 || store.searched[0] != "agent_agent-1" || store.searched[1] != "agent_agent-2" {
		t.Errorf("searched collections = %v", store.searched)
	}
}

func TestRetrieveDegradesOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		store    *fakeVectorStore
	}{
		{"embedding failure", &fakeEmbedder{fail: true}, &fakeVectorStore{}},
		{"search failure", &fakeEmbedder{}, &fakeVectorStore{fail: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetriever(tt.embedder, tt.store, testConfig())
			if got := r.Retrieve(context.Background(), "agent-1", "q"); got != nil {
				t.Errorf("got %v, want nil on failure", got)
			}
		})
	}
}

func TestRetrieveWithoutBackends(t *testing.T) {
	r := NewRetriever(nil, nil, testConfig())
	if got := r.Retrieve(context.Background(), "agent-1", "q"); got != nil {
		t.Errorf("got %v, want nil when retrieval is not configured", got)
	}
}

func TestUpsertRequiresBackends(t *testing.T) {
	r := NewRetriever(nil, nil, testConfig())
	if err := r.Upsert(context.Background(), "agent-1", "d1", "content", nil); err == nil {
		t.Error("expected error when ingesting without backends")
	}
}
