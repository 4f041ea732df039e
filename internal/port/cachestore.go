package port

import "context"

// CacheStore persists raw embedding-cache entries under a
// provider/model/hash key. The model component is the filesystem-safe form
// of the model identifier; callers apply the mapping before reaching the
// store. Any persistent key-value store satisfies this contract.
type CacheStore interface {
	// Get returns the stored bytes for the key. A missing entry is
	// (nil, false, nil), not an error.
	Get(ctx context.Context, provider, model, hash string) ([]byte, bool, error)

	// Put writes the entry, creating the provider/model namespace first if
	// needed.
	Put(ctx context.Context, provider, model, hash string, data []byte) error

	// Delete removes every entry under the given scope. An empty model
	// removes the whole provider; an empty provider removes everything.
	Delete(ctx context.Context, provider, model string) error

	Close() error
}
