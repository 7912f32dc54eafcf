package databases

import (
	"context"
	"testing"

	"github.com/fitdesk/agentd/pkg/config"
)

func newChromem(t *testing.T) *ChromemStore {
	t.Helper()
	cfg := &config.VectorStoreConfig{Type: "chromem"}
	s, err := NewChromemStore(cfg)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChromemUpsertAndSearch(t *testing.T) {
	s := newChromem(t)
	ctx := context.Background()

	docs := map[string][]float32{
		"hours":  {1, 0, 0},
		"prices": {0, 1, 0},
	}
	for id, vec := range docs {
		err := s.Upsert(ctx, "agent_a", id, vec, map[string]interface{}{
			"content": "doc " + id,
			"source":  "faq",
		})
		if err != nil {
			t.Fatalf("Upsert(%s): %v", id, err)
		}
	}

	results, err := s.Search(ctx, "agent_a", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "hours" {
		t.Errorf("best match = %s, want hours", results[0].ID)
	}
	if results[0].Score < 0.99 {
		t.Errorf("best score = %f, want ~1 for an identical vector", results[0].Score)
	}
	if results[0].Content != "doc hours" {
		t.Errorf("content = %q", results[0].Content)
	}
	if results[0].Metadata["source"] != "faq" {
		t.Errorf("metadata = %v", results[0].Metadata)
	}
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	s := newChromem(t)

	results, err := s.Search(context.Background(), "agent_empty", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want none", results)
	}
}

func TestChromemCollectionsAreIsolated(t *testing.T) {
	s := newChromem(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, "agent_a", "d1", []float32{1, 0, 0},
		map[string]interface{}{"content": "agent a doc"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := s.Search(ctx, "agent_b", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("agent_b sees %d documents from agent_a", len(results))
	}
}

func TestChromemDelete(t *testing.T) {
	s := newChromem(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, "agent_a", "d1", []float32{1, 0, 0},
		map[string]interface{}{"content": "doc"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Delete(ctx, "agent_a", "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := s.Search(ctx, "agent_a", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("document survived deletion: %v", results)
	}

	if err := s.DeleteCollection(ctx, "agent_a"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
}
