package port

import (
	"context"

	"docrag/internal/domain"
)

// DocumentLoader reads one dataset's documents. The pipeline only needs
// {id, text}; everything about the on-disk layout stays behind this
// interface.
type DocumentLoader interface {
	Load(ctx context.Context, datasetID string) ([]domain.Document, error)
}
