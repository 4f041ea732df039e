package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"docrag/internal/domain"
)

// SearchCache memoizes ranked results per (dataset, query, topK) so
// repeated questions skip the embed-score-diversify pipeline. Entries
// expire after a TTL and are dropped oldest-first past maxSize.
// Invalidate bumps a generation counter, which orphans every entry
// written before it; that is how embed and cache-clear runs keep stale
// rankings from being served.
type SearchCache struct {
	mu      sync.RWMutex
	entries map[string]*searchEntry
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
}

type searchEntry struct {
	results   []domain.ScoredDoc
	timestamp time.Time
	gen       uint64
}

func NewSearchCache(maxSize int, ttl time.Duration) *SearchCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchCache{
		entries: make(map[string]*searchEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func searchKey(datasetID, query string, topK int) string {
	h := sha256.New()
	h.Write([]byte(datasetID))
	h.Write([]byte{0})
	h.Write([]byte(query))
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(topK))
	h.Write(k[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Get returns the cached ranking and true on a fresh hit.
func (c *SearchCache) Get(datasetID, query string, topK int) ([]domain.ScoredDoc, bool) {
	key := searchKey(datasetID, query, topK)

	c.mu.RLock()
	entry, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()

	if !ok || entry.gen != gen || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.results, true
}

// Put stores a ranking, evicting the least recently used entry when full.
func (c *SearchCache) Put(datasetID, query string, topK int, results []domain.ScoredDoc) {
	key := searchKey(datasetID, query, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.moveToEnd(key)
	} else {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &searchEntry{
		results:   results,
		timestamp: time.Now(),
		gen:       c.gen,
	}
}

// Invalidate orphans all current entries. Call it whenever the underlying
// embeddings may have changed.
func (c *SearchCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
}

func (c *SearchCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the head of the order list. Caller holds mu.
func (c *SearchCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

// moveToEnd marks key as most recently used. Caller holds mu.
func (c *SearchCache) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}
