package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// hedgePenalty is subtracted from the heuristic confidence once per
// hedge phrase found in the answer.
const hedgePenalty = 0.3

// hedgePhrases flag vague or appeal-to-authority language. An answer
// grounded in retrieved text cites it; one that hedges usually strayed
// from it.
var hedgePhrases = []string{
	"generally",
	"studies show",
	"according to science",
	"it is believed",
	"it is widely known",
	"experts say",
	"some say",
	"typically",
	"in most cases",
	"as everyone knows",
}

var attributionPattern = regexp.MustCompile(`(?i)\b(sources?|documents?|according to|based on|cited?|references?)\b`)

const judgeSystemPrompt = "You are a strict grounding auditor. Respond with a single JSON object and nothing else."

const judgePromptTemplate = `Compare the answer below strictly against the source excerpts. The answer is grounded only if every claim it makes is supported by the sources.

Question:
%s

Answer:
%s

%s
Respond with only this JSON object:
{"isGrounded": true or false, "confidence": number from 0 to 1, "concerns": ["specific unsupported claims, if any"], "recommendation": "accept" or "flag" or "reject"}`

// GroundingValidator checks generated answers against the source chunks
// they were produced from. Stage 1 is a local phrase scan, stage 2 asks
// an LLM to audit the answer against the sources. The combined confidence
// is the lower of the two stages, and any judgment failure degrades to a
// flag outcome rather than letting an unchecked answer through.
type GroundingValidator struct {
	llm    port.LLM
	logger *slog.Logger
}

func NewGroundingValidator(llm port.LLM, logger *slog.Logger) *GroundingValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroundingValidator{llm: llm, logger: logger}
}

// HeuristicConfidence scans answer for hedge phrases. Each distinct
// phrase found costs a fixed decrement, floored at 0. Over-inclusive on
// purpose: it is a pre-filter, not a verdict.
func HeuristicConfidence(answer string) (float64, []string) {
	lower := strings.ToLower(answer)
	var matched []string
	for _, phrase := range hedgePhrases {
		if strings.Contains(lower, phrase) {
			matched = append(matched, phrase)
		}
	}
	confidence := 1 - hedgePenalty*float64(len(matched))
	if confidence < 0 {
		confidence = 0
	}
	return confidence, matched
}

// HasAttribution reports whether the answer contains citation-like
// phrasing.
func HasAttribution(answer string) bool {
	return attributionPattern.MatchString(answer)
}

// Validate runs both stages and merges them. The result's confidence is
// min(stage1, stage2); concerns from both stages are kept. Answers the
// LLM accepted without any citation phrasing are downgraded to flag,
// since they cannot be audited back to a source.
func (v *GroundingValidator) Validate(ctx context.Context, question, answer string, sources []string) domain.ValidationResult {
	heuristic, hedges := HeuristicConfidence(answer)
	judged := v.judge(ctx, question, answer, sources)

	concerns := make([]string, 0, len(hedges)+len(judged.Concerns))
	for _, phrase := range hedges {
		concerns = append(concerns, fmt.Sprintf("hedging language: %q", phrase))
	}
	concerns = append(concerns, judged.Concerns...)

	result := domain.ValidationResult{
		IsGrounded:           judged.IsGrounded,
		Confidence:           math.Min(heuristic, judged.Confidence),
		Concerns:             concerns,
		Recommendation:       judged.Recommendation,
		HasSourceAttribution: HasAttribution(answer),
	}

	if result.IsGrounded && !result.HasSourceAttribution && result.Recommendation == domain.RecommendAccept {
		result.Recommendation = domain.RecommendFlag
		result.Concerns = append(result.Concerns, "answer does not cite its sources")
	}
	return result
}

type judgment struct {
	IsGrounded     bool     `json:"isGrounded"`
	Confidence     float64  `json:"confidence"`
	Concerns       []string `json:"concerns"`
	Recommendation string   `json:"recommendation"`
}

func (v *GroundingValidator) judge(ctx context.Context, question, answer string, sources []string) domain.ValidationResult {
	conservative := domain.ValidationResult{
		IsGrounded:     false,
		Confidence:     0,
		Concerns:       []string{"validation failed"},
		Recommendation: domain.RecommendFlag,
	}

	var sb strings.Builder
	for i, source := range sources {
		fmt.Fprintf(&sb, "[Source %d]\n%s\n\n", i+1, source)
	}

	prompt := fmt.Sprintf(judgePromptTemplate, question, answer, sb.String())
	raw, err := v.llm.Complete(ctx, prompt, port.CompletionOptions{
		SystemPrompt: judgeSystemPrompt,
		Temperature:  0,
		MaxTokens:    512,
	})
	if err != nil {
		v.logger.WarnContext(ctx, "grounding judgment call failed", "error", err)
		return conservative
	}

	var j judgment
	if err := json.Unmarshal([]byte(extractJSON(raw)), &j); err != nil {
		v.logger.WarnContext(ctx, "grounding judgment not parseable", "error", err, "response", raw)
		return conservative
	}

	rec := domain.Recommendation(strings.ToLower(strings.TrimSpace(j.Recommendation)))
	switch rec {
	case domain.RecommendAccept, domain.RecommendFlag, domain.RecommendReject:
	default:
		rec = domain.RecommendFlag
	}

	confidence := j.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.ValidationResult{
		IsGrounded:     j.IsGrounded,
		Confidence:     confidence,
		Concerns:       j.Concerns,
		Recommendation: rec,
	}
}

// extractJSON pulls the outermost JSON object out of a model response
// that may wrap it in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
