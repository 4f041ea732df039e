package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docrag/internal/adapter/cache"
	"docrag/internal/port"
)

// EmbedStats reports what an embedding run did.
type EmbedStats struct {
	Documents int
	Units     int
	Cached    int
	Embedded  int
}

// EmbedUseCase warms the embedding cache for a whole dataset, chunking
// exactly the way search does so the cache keys line up.
type EmbedUseCase struct {
	loader     port.DocumentLoader
	chunker    port.Chunker
	embedder   port.Embedder
	embeddings *cache.EmbeddingCache
	results    *cache.SearchCache
	logger     *slog.Logger
}

// NewEmbedUseCase creates a new embed use case. results may be nil when
// no search memoization is in play.
func NewEmbedUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	embeddings *cache.EmbeddingCache,
	results *cache.SearchCache,
	logger *slog.Logger,
) *EmbedUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedUseCase{
		loader:     loader,
		chunker:    chunker,
		embedder:   embedder,
		embeddings: embeddings,
		results:    results,
		logger:     logger,
	}
}

// Ensure embeds every unit of the dataset that is not already cached.
// progress, when non-nil, is called as work completes.
func (u *EmbedUseCase) Ensure(ctx context.Context, datasetID string, progress func(done, total int)) (*EmbedStats, error) {
	docs, err := u.loader.Load(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	units := unitsFor(u.chunker, docs)
	texts := make([]string, 0, len(units))
	for _, unit := range units {
		texts = append(texts, unit.Content())
	}

	provider, model := u.embedder.Provider(), u.embedder.ModelName()
	cached, err := u.embeddings.LoadCached(ctx, texts, provider, model)
	if err != nil {
		return nil, err
	}

	vectors, err := u.embeddings.EmbedMissing(ctx, texts, u.embedder, progress)
	if err != nil {
		return nil, err
	}

	stats := &EmbedStats{
		Documents: len(docs),
		Units:     len(units),
		Cached:    len(cached),
		Embedded:  len(vectors) - len(cached),
	}

	if stats.Embedded > 0 && u.results != nil {
		u.results.Invalidate()
	}

	u.logger.InfoContext(ctx, "embedding run complete",
		"dataset", datasetID, "documents", stats.Documents, "units", stats.Units,
		"cached", stats.Cached, "embedded", stats.Embedded,
		"provider", provider, "model", model)
	return stats, nil
}
