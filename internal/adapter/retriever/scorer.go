package retriever

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"docrag/internal/adapter/analyzer"
	"docrag/internal/domain"
)

// exactPhraseBonus dominates any token-frequency score, so a verbatim
// query match always outranks partial matches.
const exactPhraseBonus = 10.0

const (
	exactMatchContext = 50
	tokenMatchContext = 30
)

// HybridScorer blends vector similarity with lexical overlap. Embeddings
// catch paraphrases, keyword matching catches identifiers and exact
// phrases that embedding models blur together.
type HybridScorer struct {
	enableHybrid    bool
	embeddingWeight float64
}

// NewHybridScorer builds a scorer. embeddingWeight is the share of the
// combined score taken from vector similarity; out-of-range values fall
// back to 0.7. A weight of 1 degenerates to pure embedding search.
func NewHybridScorer(enableHybrid bool, embeddingWeight float64) *HybridScorer {
	if embeddingWeight <= 0 || embeddingWeight > 1 {
		embeddingWeight = 0.7
	}
	return &HybridScorer{
		enableHybrid:    enableHybrid,
		embeddingWeight: embeddingWeight,
	}
}

// Score ranks one unit of text against the query. A unit without an
// embedding scores 0 on the vector signal rather than failing; mismatched
// dimensions are an error because they mean vectors from different models
// are being compared.
func (s *HybridScorer) Score(query string, queryVec []float32, text string, embedding []float32) (domain.ScoreBreakdown, error) {
	var embeddingScore float64
	if len(embedding) > 0 {
		sim, err := CosineSimilarity(queryVec, embedding)
		if err != nil {
			return domain.ScoreBreakdown{}, fmt.Errorf("failed to score embedding: %w", err)
		}
		embeddingScore = sim
	}

	keywordScore := KeywordScore(query, text)

	combined := embeddingScore
	if s.enableHybrid {
		combined = embeddingScore*s.embeddingWeight + keywordScore*(1-s.embeddingWeight)
	}

	return domain.ScoreBreakdown{
		Combined:   combined,
		Embedding:  embeddingScore,
		Keyword:    keywordScore,
		Highlights: buildHighlights(query, text),
	}, nil
}

// CosineSimilarity returns dot(a,b) / (|a||b|), accumulated in float64.
// Either vector having zero norm yields 0, never NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// KeywordScore measures lexical overlap between query and text. A
// case-insensitive verbatim occurrence of the whole query short-circuits
// to the exact phrase bonus. Otherwise every query token found among the
// text's tokens adds its term frequency normalized by ln(tokenCount+1).
// There is no IDF term, which is fine for a single small collection.
func KeywordScore(query, text string) float64 {
	queryLower := strings.ToLower(query)
	if strings.TrimSpace(queryLower) == "" || text == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(text), queryLower) {
		return exactPhraseBonus
	}

	textTokens := analyzer.Tokenize(text)
	if len(textTokens) == 0 {
		return 0
	}
	tf := make(map[string]int, len(textTokens))
	for _, token := range textTokens {
		tf[token]++
	}

	norm := math.Log(float64(len(textTokens)) + 1)
	var score float64
	for _, token := range analyzer.Tokenize(query) {
		if count := tf[token]; count > 0 {
			score += float64(count) / norm
		}
	}
	return score
}

// buildHighlights returns at most one excerpt showing where the query
// matched. An exact phrase match wins; otherwise the first query token
// found in the text is used, and nothing matching means no highlights.
func buildHighlights(query, text string) []string {
	queryLower := strings.ToLower(query)
	textLower := strings.ToLower(text)

	if strings.TrimSpace(queryLower) != "" {
		if idx := strings.Index(textLower, queryLower); idx >= 0 {
			return []string{excerpt(text, idx, idx+len(queryLower), exactMatchContext)}
		}
	}
	for _, token := range analyzer.Tokenize(query) {
		if idx := strings.Index(textLower, token); idx >= 0 {
			return []string{excerpt(text, idx, idx+len(token), tokenMatchContext)}
		}
	}
	return nil
}

// excerpt slices text around [start,end) with context bytes on each side,
// snapped to rune boundaries, marking truncation with ellipses.
func excerpt(text string, start, end, context int) string {
	from := start - context
	if from < 0 {
		from = 0
	}
	to := end + context
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	out := text[from:to]
	if from > 0 {
		out = "..." + out
	}
	if to < len(text) {
		out += "..."
	}
	return out
}
