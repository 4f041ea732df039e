package port

import (
	"context"

	"docrag/internal/domain"
)

// Searcher runs a ranked, diversified search over one dataset.
type Searcher interface {
	Search(ctx context.Context, datasetID, query string, topK int) ([]domain.ScoredDoc, error)
}
