package memstore

import (
	"context"
	"testing"

	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/embedding"
)

func TestRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "openai", "small", "abc", []byte("payload")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	data, ok, err := store.Get(ctx, "openai", "small", "abc")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok || string(data) != "payload" {
		t.Errorf("Get() = %q, %v; want payload, true", data, ok)
	}

	// mutating the returned slice must not touch the stored copy
	data[0] = 'X'
	again, _, _ := store.Get(ctx, "openai", "small", "abc")
	if string(again) != "payload" {
		t.Errorf("stored entry mutated through caller slice: %q", again)
	}

	if _, ok, _ := store.Get(ctx, "openai", "small", "missing"); ok {
		t.Error("missing hash reported as present")
	}
}

func TestDeleteScopes(t *testing.T) {
	ctx := context.Background()

	seed := func() *MemoryStore {
		s := NewMemoryStore()
		s.Put(ctx, "openai", "small", "h1", []byte("a"))
		s.Put(ctx, "openai", "large", "h2", []byte("b"))
		s.Put(ctx, "jina", "v3", "h3", []byte("c"))
		return s
	}

	s := seed()
	s.Delete(ctx, "openai", "small")
	if _, ok, _ := s.Get(ctx, "openai", "small", "h1"); ok {
		t.Error("model-scoped delete left the model's entry")
	}
	if _, ok, _ := s.Get(ctx, "openai", "large", "h2"); !ok {
		t.Error("model-scoped delete removed a sibling model")
	}

	s = seed()
	s.Delete(ctx, "openai", "")
	if _, ok, _ := s.Get(ctx, "openai", "large", "h2"); ok {
		t.Error("provider-scoped delete left an entry")
	}
	if _, ok, _ := s.Get(ctx, "jina", "v3", "h3"); !ok {
		t.Error("provider-scoped delete removed another provider")
	}

	s = seed()
	s.Delete(ctx, "", "")
	if s.Len() != 0 {
		t.Errorf("full delete left %d entries", s.Len())
	}
}

func TestEmbeddingCacheOverMemory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	embeddings := cache.NewEmbeddingCache(store, 1, nil)
	embedder := embedding.NewMockEmbedder(16)

	texts := []string{"alpha", "beta"}
	vectors, err := embeddings.EmbedMissing(ctx, texts, embedder, nil)
	if err != nil {
		t.Fatalf("EmbedMissing() error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if store.Len() != 2 {
		t.Errorf("store holds %d entries, want 2", store.Len())
	}

	cached, err := embeddings.LoadCached(ctx, texts, embedder.Provider(), embedder.ModelName())
	if err != nil {
		t.Fatalf("LoadCached() error: %v", err)
	}
	if len(cached) != 2 {
		t.Errorf("cache returned %d entries after warm-up, want 2", len(cached))
	}
}
