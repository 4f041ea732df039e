package retriever

import (
	"math"
	"strings"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 2, 3}

	sim, err := CosineSimilarity(a, a)
	if err != nil {
		t.Fatalf("CosineSimilarity(a, a) error: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", sim)
	}

	for _, pair := range [][2][]float32{
		{a, {0, 0, 0}},
		{{0, 0, 0}, a},
	} {
		sim, err := CosineSimilarity(pair[0], pair[1])
		if err != nil {
			t.Fatalf("zero-norm vector errored: %v", err)
		}
		if sim != 0 {
			t.Errorf("zero-norm similarity = %v, want 0", sim)
		}
	}

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil || sim != 0 {
		t.Errorf("orthogonal similarity = %v (err %v), want 0", sim, err)
	}

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if err != nil || math.Abs(sim+1) > 1e-9 {
		t.Errorf("opposite similarity = %v (err %v), want -1", sim, err)
	}

	if _, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("mismatched dimensions must be an error")
	}
}

func TestKeywordScoreExactPhrase(t *testing.T) {
	if got := KeywordScore("API timeout", "The API timeout is configured in settings."); got != exactPhraseBonus {
		t.Errorf("exact phrase score = %v, want %v", got, exactPhraseBonus)
	}
	// containment is case-insensitive in both directions
	if got := KeywordScore("api TIMEOUT", "The API timeout is configured."); got != exactPhraseBonus {
		t.Errorf("mixed case phrase score = %v, want %v", got, exactPhraseBonus)
	}
}

func TestKeywordScoreTokenOverlap(t *testing.T) {
	text := "the gateway timeout happened"

	// phrase absent, both tokens present: 2 * tf(1) / ln(4+1)
	got := KeywordScore("timeout gateway", text)
	want := 2 / math.Log(5)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("token score = %v, want %v", got, want)
	}

	// repeated query tokens each contribute
	got = KeywordScore("timeout timeout", text)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("duplicate token score = %v, want %v", got, want)
	}

	// token matching is whole-token, unlike the phrase check
	if got := KeywordScore("time stamp", "the timeout happened stampede"); got != 0 {
		t.Errorf("partial token matched, score = %v, want 0", got)
	}

	if got := KeywordScore("", text); got != 0 {
		t.Errorf("empty query score = %v, want 0", got)
	}
	if got := KeywordScore("timeout", ""); got != 0 {
		t.Errorf("empty text score = %v, want 0", got)
	}
	if got := KeywordScore("quantum entanglement", text); got != 0 {
		t.Errorf("no-overlap score = %v, want 0", got)
	}
}

func TestScoreHybridRanking(t *testing.T) {
	chunks := []string{
		"The API timeout is configured in settings.",
		"Authentication requires a JWT token.",
		"Set timeout to 30s for API calls.",
	}

	scorer := NewHybridScorer(true, 0.5)
	queryVec := []float32{1, 0}
	embedding := []float32{1, 0}

	scores := make([]float64, len(chunks))
	for i, text := range chunks {
		breakdown, err := scorer.Score("API timeout", queryVec, text, embedding)
		if err != nil {
			t.Fatalf("Score(chunk %d) error: %v", i, err)
		}
		scores[i] = breakdown.Combined

		if i == 0 {
			if breakdown.Keyword != exactPhraseBonus {
				t.Errorf("chunk 0 keyword = %v, want exact phrase bonus", breakdown.Keyword)
			}
			if len(breakdown.Highlights) == 0 {
				t.Fatal("chunk 0 produced no highlight")
			}
			if !strings.Contains(breakdown.Highlights[0], "API timeout") {
				t.Errorf("highlight %q does not contain the matched phrase", breakdown.Highlights[0])
			}
		}
	}

	if scores[0] <= scores[1] || scores[0] <= scores[2] {
		t.Errorf("exact phrase chunk must rank first, scores: %v", scores)
	}
	if scores[2] <= scores[1] {
		t.Errorf("partial token overlap must beat no overlap, scores: %v", scores)
	}
}

func TestScoreHybridDisabled(t *testing.T) {
	scorer := NewHybridScorer(false, 0.5)

	// keyword hit, but vectors are orthogonal
	breakdown, err := scorer.Score("hello", []float32{1, 0}, "hello world", []float32{0, 1})
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if breakdown.Combined != 0 {
		t.Errorf("combined = %v, want embedding score alone", breakdown.Combined)
	}
	if breakdown.Keyword != exactPhraseBonus {
		t.Errorf("keyword breakdown = %v, want %v", breakdown.Keyword, exactPhraseBonus)
	}
}

func TestScoreWithoutEmbedding(t *testing.T) {
	scorer := NewHybridScorer(true, 0.5)

	breakdown, err := scorer.Score("hello", []float32{1, 0}, "hello world", nil)
	if err != nil {
		t.Fatalf("missing embedding must not error: %v", err)
	}
	if breakdown.Embedding != 0 {
		t.Errorf("embedding score = %v, want 0", breakdown.Embedding)
	}
	if want := exactPhraseBonus * 0.5; math.Abs(breakdown.Combined-want) > 1e-9 {
		t.Errorf("combined = %v, want %v", breakdown.Combined, want)
	}
}

func TestScoreDimensionMismatch(t *testing.T) {
	scorer := NewHybridScorer(true, 0.7)
	if _, err := scorer.Score("q", []float32{1, 2}, "text", []float32{1, 2, 3}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestNewHybridScorerWeightFallback(t *testing.T) {
	for _, weight := range []float64{0, -1, 1.5} {
		s := NewHybridScorer(true, weight)
		if s.embeddingWeight != 0.7 {
			t.Errorf("weight %v: got %v, want default 0.7", weight, s.embeddingWeight)
		}
	}
	if s := NewHybridScorer(true, 1); s.embeddingWeight != 1 {
		t.Error("weight 1 is valid and means pure embedding search")
	}
}

func TestBuildHighlightsExactTruncated(t *testing.T) {
	text := strings.Repeat("a", 80) + " needle " + strings.Repeat("b", 80)

	highlights := buildHighlights("needle", text)
	if len(highlights) != 1 {
		t.Fatalf("got %d highlights, want 1", len(highlights))
	}
	h := highlights[0]
	if !strings.Contains(h, "needle") {
		t.Errorf("highlight %q missing match", h)
	}
	if !strings.HasPrefix(h, "...") || !strings.HasSuffix(h, "...") {
		t.Errorf("truncated highlight %q missing ellipses", h)
	}
}

func TestBuildHighlightsWholeTextNoEllipses(t *testing.T) {
	highlights := buildHighlights("API timeout", "The API timeout is configured in settings.")
	if len(highlights) != 1 {
		t.Fatalf("got %d highlights, want 1", len(highlights))
	}
	if strings.Contains(highlights[0], "...") {
		t.Errorf("short text should not be truncated: %q", highlights[0])
	}
}

func TestBuildHighlightsTokenFallback(t *testing.T) {
	text := strings.Repeat("a", 60) + " needle " + strings.Repeat("b", 60)

	highlights := buildHighlights("zzz needle", text)
	if len(highlights) != 1 {
		t.Fatalf("got %d highlights, want 1", len(highlights))
	}
	if !strings.Contains(highlights[0], "needle") {
		t.Errorf("highlight %q missing token match", highlights[0])
	}
}

func TestBuildHighlightsNoMatch(t *testing.T) {
	if highlights := buildHighlights("xyzzy", "hello world"); highlights != nil {
		t.Errorf("got %v, want none", highlights)
	}
}
