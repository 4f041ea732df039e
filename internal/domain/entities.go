package domain

import "time"

// Document is one whole entry produced by a dataset loader.
// Immutable once read.
type Document struct {
	ID   string
	Text string
}

// Chunk is a bounded slice of a document's text, possibly overlapping its
// neighbors. StartOffset/EndOffset are character offsets into the original
// document text and are approximate once overlap is re-inserted; treat them
// as display locators, not exact slices.
type Chunk struct {
	ID          string
	DocumentID  string
	Text        string
	StartOffset int
	EndOffset   int
	ChunkIndex  int
	TotalChunks int
}

// Unit is a search candidate: either a whole document or one chunk of it.
// Chunk-specific fields stay on Chunk, where they are always valid.
type Unit interface {
	// UnitID uniquely identifies this candidate.
	UnitID() string

	// SourceID identifies the owning document. For a whole document it is
	// the document's own id.
	SourceID() string

	// Content returns the candidate's raw text.
	Content() string
}

func (d Document) UnitID() string   { return d.ID }
func (d Document) SourceID() string { return d.ID }
func (d Document) Content() string  { return d.Text }

func (c Chunk) UnitID() string   { return c.ID }
func (c Chunk) SourceID() string { return c.DocumentID }
func (c Chunk) Content() string  { return c.Text }

// ScoredDoc pairs a unit with its per-query relevance signals.
// Transient: recomputed per query, never persisted.
type ScoredDoc struct {
	Unit       Unit
	Score      float64
	Highlights []string
	Embedding  []float32
}

// ScoreBreakdown carries the individual signals behind a combined score.
type ScoreBreakdown struct {
	Combined   float64
	Embedding  float64
	Keyword    float64
	Highlights []string
}

// CacheKey is the integrity triple stored inside every cache entry. An
// entry is valid for loading only when the stored triple matches the
// current lookup exactly.
type CacheKey struct {
	ContentHash string `json:"contentHash"`
	Model       string `json:"model"`
	Provider    string `json:"provider"`
}

// CachedEmbedding is the persisted form of one embedding, one JSON object
// per cache entry. ContentHash is always sha256(Text).
type CachedEmbedding struct {
	ContentHash string    `json:"contentHash"`
	Text        string    `json:"text"`
	Embedding   []float32 `json:"embedding"`
	CreatedAt   time.Time `json:"createdAt"`
	Model       string    `json:"model"`
	Provider    string    `json:"provider"`
	CacheKey    CacheKey  `json:"cacheKey"`
}

// Recommendation is the validator's verdict on a generated answer.
type Recommendation string

const (
	RecommendAccept Recommendation = "accept"
	RecommendFlag   Recommendation = "flag"
	RecommendReject Recommendation = "reject"
)

// ValidationResult is the outcome of grounding validation for one
// (question, answer, context) triple. Created fresh per call and never
// mutated afterwards; callers that apply policy (strict mode) wrap it
// instead of editing it.
type ValidationResult struct {
	IsGrounded           bool           `json:"isGrounded"`
	Confidence           float64        `json:"confidence"`
	Concerns             []string       `json:"concerns"`
	Recommendation       Recommendation `json:"recommendation"`
	HasSourceAttribution bool           `json:"hasSourceAttribution"`
}
