package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// EmbeddingCache persists embedding vectors content-addressed by
// (provider, model, sha256(text)). Reads never invent data: a missing
// entry, unparsable JSON, or an integrity mismatch is a miss, not an
// error, and the caller re-embeds. Writes go through the configured
// CacheStore backend one entry at a time, so work completed before an
// interruption stays cached.
type EmbeddingCache struct {
	store   port.CacheStore
	workers int
	logger  *slog.Logger
}

// NewEmbeddingCache wraps a CacheStore backend. workers bounds the number
// of concurrent embed calls in EmbedMissing; values below 2 keep the
// sequential path.
func NewEmbeddingCache(store port.CacheStore, workers int, logger *slog.Logger) *EmbeddingCache {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingCache{
		store:   store,
		workers: workers,
		logger:  logger,
	}
}

// ContentHash returns the hex-encoded sha256 digest of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

var (
	unsafeModelChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	repeatedHyphens  = regexp.MustCompile(`-{2,}`)
)

// SafeModelName maps a model identifier to a path-safe token. Model names
// routinely carry slashes and colons ("org/model:tag"); every character
// outside [A-Za-z0-9._-] becomes a hyphen and runs of hyphens collapse.
func SafeModelName(model string) string {
	safe := unsafeModelChars.ReplaceAllString(model, "-")
	return repeatedHyphens.ReplaceAllString(safe, "-")
}

// LoadCached returns a vector for every text that has a valid cache entry
// under (provider, model). Texts without one are simply absent from the
// result map.
func (c *EmbeddingCache) LoadCached(ctx context.Context, texts []string, provider, model string) (map[string][]float32, error) {
	found := make(map[string][]float32, len(texts))
	safeModel := SafeModelName(model)

	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if _, ok := found[text]; ok {
			continue
		}
		hash := ContentHash(text)
		data, ok, err := c.store.Get(ctx, provider, safeModel, hash)
		if err != nil {
			c.logger.DebugContext(ctx, "cache read failed, treating as miss",
				"provider", provider, "model", model, "hash", hash, "error", err)
			continue
		}
		if !ok {
			continue
		}
		entry, ok := decodeEntry(data, hash, provider, model)
		if !ok {
			c.logger.DebugContext(ctx, "cache entry rejected",
				"provider", provider, "model", model, "hash", hash)
			continue
		}
		found[text] = entry.Embedding
	}
	return found, nil
}

// decodeEntry parses a stored entry and verifies its embedded cacheKey
// against the lookup. A mismatch means the bytes belong to different
// content, a different model, or a different provider, so they must not
// be served for this key.
func decodeEntry(data []byte, hash, provider, model string) (domain.CachedEmbedding, bool) {
	var entry domain.CachedEmbedding
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CachedEmbedding{}, false
	}
	if entry.CacheKey.ContentHash != hash || entry.CacheKey.Model != model || entry.CacheKey.Provider != provider {
		return domain.CachedEmbedding{}, false
	}
	if len(entry.Embedding) == 0 {
		return domain.CachedEmbedding{}, false
	}
	return entry, true
}

// Store persists one embedding. Empty vectors are rejected so a failed
// embed call can never leave a bogus entry behind.
func (c *EmbeddingCache) Store(ctx context.Context, text string, vector []float32, provider, model string) error {
	if len(vector) == 0 {
		return fmt.Errorf("refusing to cache empty embedding (provider %s, model %s)", provider, model)
	}

	hash := ContentHash(text)
	entry := domain.CachedEmbedding{
		ContentHash: hash,
		Text:        text,
		Embedding:   vector,
		CreatedAt:   time.Now().UTC(),
		Model:       model,
		Provider:    provider,
		CacheKey: domain.CacheKey{
			ContentHash: hash,
			Model:       model,
			Provider:    provider,
		},
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.store.Put(ctx, provider, SafeModelName(model), hash, data); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear deletes cache entries. With both arguments empty everything goes;
// a provider alone removes all of that provider's models; provider and
// model together remove one exact pair.
func (c *EmbeddingCache) Clear(ctx context.Context, provider, model string) error {
	if provider == "" && model != "" {
		return fmt.Errorf("cannot clear by model without a provider")
	}
	if err := c.store.Delete(ctx, provider, SafeModelName(model)); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// EmbedMissing returns a vector for every distinct text, reading the
// cache first and embedding only what is absent. Each fresh vector is
// persisted before the next is requested. With workers > 1 the embed
// calls run on a bounded pool; entries are content-addressed, so
// concurrent writes stay independent and only latency changes. progress,
// when non-nil, is called after the cache scan and after every embed.
func (c *EmbeddingCache) EmbedMissing(ctx context.Context, texts []string, embedder port.Embedder, progress func(done, total int)) (map[string][]float32, error) {
	provider, model := embedder.Provider(), embedder.ModelName()

	vectors, err := c.LoadCached(ctx, texts, provider, model)
	if err != nil {
		return vectors, err
	}

	var missing []string
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		if seen[text] {
			continue
		}
		seen[text] = true
		if _, ok := vectors[text]; !ok {
			missing = append(missing, text)
		}
	}

	total := len(seen)
	done := total - len(missing)
	if progress != nil {
		progress(done, total)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	c.logger.DebugContext(ctx, "embedding uncached texts",
		"cached", done, "missing", len(missing), "provider", provider, "model", model)

	if c.workers > 1 {
		return c.embedPooled(ctx, vectors, missing, embedder, progress, done, total)
	}

	for _, text := range missing {
		if err := ctx.Err(); err != nil {
			return vectors, err
		}
		vector, err := embedder.Embed(ctx, text)
		if err != nil {
			return vectors, fmt.Errorf("embedding failed: %w", err)
		}
		if err := c.Store(ctx, text, vector, provider, model); err != nil {
			return vectors, err
		}
		vectors[text] = vector
		done++
		if progress != nil {
			progress(done, total)
		}
	}
	return vectors, nil
}

func (c *EmbeddingCache) embedPooled(ctx context.Context, vectors map[string][]float32, missing []string, embedder port.Embedder, progress func(done, total int), done, total int) (map[string][]float32, error) {
	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return vectors, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	provider, model := embedder.Provider(), embedder.ModelName()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, text := range missing {
		text := text
		wg.Add(1)
		task := func() {
			defer wg.Done()

			mu.Lock()
			stop := firstErr != nil
			mu.Unlock()
			if stop || ctx.Err() != nil {
				return
			}

			vector, err := embedder.Embed(ctx, text)
			if err == nil {
				err = c.Store(ctx, text, vector, provider, model)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			vectors[text] = vector
			done++
			if progress != nil {
				progress(done, total)
			}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to submit embed task: %w", err)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return vectors, fmt.Errorf("embedding failed: %w", firstErr)
	}
	if err := ctx.Err(); err != nil {
		return vectors, err
	}
	return vectors, nil
}
