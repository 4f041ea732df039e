package port

import "docrag/internal/domain"

// Chunker splits a document into bounded, overlapping chunks. Chunking is
// pure computation and cannot fail.
type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk

	// ShouldChunk reports whether the text is large enough to be worth
	// splitting at all.
	ShouldChunk(text string) bool
}
