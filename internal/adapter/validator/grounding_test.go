package validator

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"docrag/internal/domain"
	"docrag/internal/port"
)

type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, opts port.CompletionOptions) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

func containsConcern(result domain.ValidationResult, substr string) bool {
	for _, c := range result.Concerns {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func TestHeuristicConfidence(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    float64
		matches int
	}{
		{"clean", "The timeout is 30 seconds.", 1.0, 0},
		{"two hedges", "Generally, studies show the cache improves latency.", 0.4, 2},
		{"one hedge", "Typically the cache is warm.", 0.7, 1},
		{"floored at zero", "Generally, studies show what experts say, and it is believed to be true.", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := HeuristicConfidence(tt.answer)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("confidence = %v, want %v", got, tt.want)
			}
			if len(matched) != tt.matches {
				t.Errorf("matched %v, want %d phrases", matched, tt.matches)
			}
		})
	}
}

func TestHasAttribution(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"Source: setup.md", true},
		{"According to the text, retries are off.", true},
		{"The document says retries are off.", true},
		{"Based on the excerpts, retries are off.", true},
		{"Retries are off.", false},
		{"Read the documentation for details.", false},
	}
	for _, tt := range tests {
		if got := HasAttribution(tt.answer); got != tt.want {
			t.Errorf("HasAttribution(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}

func TestValidateGroundedAndCited(t *testing.T) {
	llm := &fakeLLM{response: `{"isGrounded": true, "confidence": 0.9, "concerns": [], "recommendation": "accept"}`}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "What is the timeout?",
		"According to the document, the timeout is 30 seconds.",
		[]string{"The timeout is 30 seconds."})

	if !result.IsGrounded {
		t.Error("expected grounded")
	}
	if result.Recommendation != domain.RecommendAccept {
		t.Errorf("recommendation = %s, want accept", result.Recommendation)
	}
	if math.Abs(result.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9 (the lower stage)", result.Confidence)
	}
	if !result.HasSourceAttribution {
		t.Error("attribution phrasing not detected")
	}
	if !strings.Contains(llm.lastPrompt, "What is the timeout?") || !strings.Contains(llm.lastPrompt, "[Source 1]") {
		t.Error("judgment prompt missing question or sources")
	}
}

func TestValidateDowngradesUncitedAnswer(t *testing.T) {
	llm := &fakeLLM{response: `{"isGrounded": true, "confidence": 0.95, "concerns": [], "recommendation": "accept"}`}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "What is the timeout?",
		"The timeout is 30 seconds.",
		[]string{"The timeout is 30 seconds."})

	if result.Recommendation != domain.RecommendFlag {
		t.Errorf("recommendation = %s, want flag for uncited answer", result.Recommendation)
	}
	if result.HasSourceAttribution {
		t.Error("expected no attribution")
	}
	if !containsConcern(result, "cite") {
		t.Errorf("missing citation concern: %v", result.Concerns)
	}
	// grounding verdict itself is untouched
	if !result.IsGrounded {
		t.Error("downgrade must not flip the grounding verdict")
	}
}

func TestValidateParseFailure(t *testing.T) {
	llm := &fakeLLM{response: "The answer looks fine to me."}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "q", "Plain answer.", []string{"source"})

	if result.IsGrounded {
		t.Error("unparseable judgment must not pass the answer")
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
	if result.Recommendation != domain.RecommendFlag {
		t.Errorf("recommendation = %s, want flag", result.Recommendation)
	}
	if !containsConcern(result, "validation failed") {
		t.Errorf("missing failure concern: %v", result.Concerns)
	}
}

func TestValidateProviderError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "q", "Plain answer.", []string{"source"})

	if result.Recommendation != domain.RecommendFlag || result.Confidence != 0 || result.IsGrounded {
		t.Errorf("provider failure must degrade conservatively, got %+v", result)
	}
}

func TestValidateExtractsWrappedJSON(t *testing.T) {
	llm := &fakeLLM{response: "Here is my assessment:\n```json\n{\"isGrounded\": true, \"confidence\": 0.8, \"concerns\": [], \"recommendation\": \"accept\"}\n```\nDone."}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "q",
		"According to the source, it works.", []string{"it works"})

	if !result.IsGrounded || result.Recommendation != domain.RecommendAccept {
		t.Errorf("wrapped JSON not extracted: %+v", result)
	}
}

func TestValidateTakesLowerConfidence(t *testing.T) {
	llm := &fakeLLM{response: `{"isGrounded": true, "confidence": 0.9, "concerns": [], "recommendation": "accept"}`}
	v := NewGroundingValidator(llm, nil)

	// one hedge phrase puts stage 1 at 0.7, below the judged 0.9
	result := v.Validate(context.Background(), "q",
		"Generally the timeout is 30 seconds, according to the document.",
		[]string{"The timeout is 30 seconds."})

	if math.Abs(result.Confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %v, want 0.7", result.Confidence)
	}
	if !containsConcern(result, "hedging") {
		t.Errorf("missing hedge concern: %v", result.Concerns)
	}
}

func TestValidateUnknownRecommendation(t *testing.T) {
	llm := &fakeLLM{response: `{"isGrounded": true, "confidence": 0.9, "concerns": [], "recommendation": "approve"}`}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "q",
		"According to the source, it works.", []string{"it works"})

	if result.Recommendation != domain.RecommendFlag {
		t.Errorf("unknown label must map to flag, got %s", result.Recommendation)
	}
}

func TestValidateClampsConfidence(t *testing.T) {
	llm := &fakeLLM{response: `{"isGrounded": true, "confidence": 3.5, "concerns": [], "recommendation": "accept"}`}
	v := NewGroundingValidator(llm, nil)

	result := v.Validate(context.Background(), "q",
		"According to the source, it works.", []string{"it works"})

	if result.Confidence > 1 {
		t.Errorf("confidence = %v, want at most 1", result.Confidence)
	}
}
