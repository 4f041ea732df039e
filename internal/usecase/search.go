package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/retriever"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// SearchUseCase runs the retrieval pipeline: load a dataset, chunk what
// crosses the chunking threshold, fill embeddings through the cache,
// score every unit against the query, and diversify the top results.
type SearchUseCase struct {
	loader     port.DocumentLoader
	chunker    port.Chunker
	embedder   port.Embedder
	embeddings *cache.EmbeddingCache
	scorer     *retriever.HybridScorer
	results    *cache.SearchCache
	logger     *slog.Logger
}

// NewSearchUseCase creates a new search use case. embedder may be nil to
// rank purely by keyword overlap; results may be nil to disable search
// memoization.
func NewSearchUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	embeddings *cache.EmbeddingCache,
	scorer *retriever.HybridScorer,
	results *cache.SearchCache,
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		loader:     loader,
		chunker:    chunker,
		embedder:   embedder,
		embeddings: embeddings,
		scorer:     scorer,
		results:    results,
		logger:     logger,
	}
}

// Search returns the top ranked units of the dataset for the query.
func (u *SearchUseCase) Search(ctx context.Context, datasetID, query string, topK int) ([]domain.ScoredDoc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	if u.results != nil {
		if hit, ok := u.results.Get(datasetID, query, topK); ok {
			u.logger.DebugContext(ctx, "search cache hit", "dataset", datasetID, "topK", topK)
			return hit, nil
		}
	}

	docs, err := u.loader.Load(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	units := unitsFor(u.chunker, docs)

	var (
		vectors  map[string][]float32
		queryVec []float32
	)
	if u.embedder != nil {
		texts := make([]string, 0, len(units)+1)
		for _, unit := range units {
			texts = append(texts, unit.Content())
		}
		texts = append(texts, query)

		vectors, err = u.embeddings.EmbedMissing(ctx, texts, u.embedder, nil)
		if err != nil {
			return nil, err
		}
		queryVec = vectors[query]
	}

	scored := make([]domain.ScoredDoc, 0, len(units))
	for _, unit := range units {
		breakdown, err := u.scorer.Score(query, queryVec, unit.Content(), vectors[unit.Content()])
		if err != nil {
			return nil, fmt.Errorf("failed to score %s: %w", unit.UnitID(), err)
		}
		scored = append(scored, domain.ScoredDoc{
			Unit:       unit,
			Score:      breakdown.Combined,
			Highlights: breakdown.Highlights,
			Embedding:  vectors[unit.Content()],
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	final := retriever.Diversify(scored, topK)

	u.logger.DebugContext(ctx, "search complete",
		"dataset", datasetID, "documents", len(docs), "units", len(units), "returned", len(final))

	if u.results != nil {
		u.results.Put(datasetID, query, topK, final)
	}
	return final, nil
}

// unitsFor expands documents into retrieval units. Documents under the
// chunking threshold stay whole.
func unitsFor(chunker port.Chunker, docs []domain.Document) []domain.Unit {
	var units []domain.Unit
	for _, doc := range docs {
		if chunker.ShouldChunk(doc.Text) {
			for _, chunk := range chunker.Chunk(doc) {
				units = append(units, chunk)
			}
			continue
		}
		units = append(units, doc)
	}
	return units
}
