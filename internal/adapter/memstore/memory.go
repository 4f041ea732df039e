package memstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory cache store. It keeps the same
// provider/model/hash layout as the persistent backends, so tests and
// ephemeral pipelines can swap it in without changing cache semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]map[string][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, provider, model, hash string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.entries[provider][model][hash]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, provider, model, hash string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	models, ok := s.entries[provider]
	if !ok {
		models = make(map[string]map[string][]byte)
		s.entries[provider] = models
	}
	hashes, ok := models[model]
	if !ok {
		hashes = make(map[string][]byte)
		models[model] = hashes
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	hashes[hash] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, provider, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case provider == "":
		s.entries = make(map[string]map[string]map[string][]byte)
	case model == "":
		delete(s.entries, provider)
	default:
		delete(s.entries[provider], model)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the total number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, models := range s.entries {
		for _, hashes := range models {
			n += len(hashes)
		}
	}
	return n
}
