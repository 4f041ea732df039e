package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docrag/internal/adapter/validator"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// RefusalMessage replaces any answer whose effective recommendation is
// reject.
const RefusalMessage = "I can't answer that reliably from the indexed documents: the generated answer did not pass grounding validation."

// NoResultsMessage is returned when retrieval finds nothing to answer
// from.
const NoResultsMessage = "No relevant documents were found for this question."

const answerSystemPrompt = "You answer questions using only the provided sources. Cite the sources you use as [Source N]. If the sources do not contain the answer, say that they do not."

const answerPromptTemplate = `Answer the question using only the sources below. Cite every claim with its [Source N] marker.

%s
Question: %s

Answer:`

// AnswerResult is what the ask pipeline hands back. Validation preserves
// the validator's verdict untouched; Recommendation is the effective one
// after strict-mode policy, and Answer already reflects any refusal
// substitution.
type AnswerResult struct {
	Question       string                  `json:"question"`
	Answer         string                  `json:"answer"`
	Sources        []domain.ScoredDoc      `json:"sources"`
	Validation     domain.ValidationResult `json:"validation"`
	Recommendation domain.Recommendation   `json:"recommendation"`
	Refused        bool                    `json:"refused"`
}

// AnswerUseCase generates an answer from retrieved passages and validates
// it before anyone sees it.
type AnswerUseCase struct {
	searcher  port.Searcher
	llm       port.LLM
	validator *validator.GroundingValidator
	topK      int
	strict    bool
	logger    *slog.Logger
}

// NewAnswerUseCase creates a new answer use case. With strict enabled,
// flagged answers are rejected instead of shown with a warning.
func NewAnswerUseCase(
	searcher port.Searcher,
	llm port.LLM,
	groundingValidator *validator.GroundingValidator,
	topK int,
	strict bool,
	logger *slog.Logger,
) *AnswerUseCase {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		searcher:  searcher,
		llm:       llm,
		validator: groundingValidator,
		topK:      topK,
		strict:    strict,
		logger:    logger,
	}
}

// Answer retrieves passages for the question, generates an answer over
// them, and applies the validation policy.
func (u *AnswerUseCase) Answer(ctx context.Context, datasetID, question string) (*AnswerResult, error) {
	results, err := u.searcher.Search(ctx, datasetID, question, u.topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &AnswerResult{
			Question: question,
			Answer:   NoResultsMessage,
			Validation: domain.ValidationResult{
				Concerns:       []string{"no sources retrieved"},
				Recommendation: domain.RecommendReject,
			},
			Recommendation: domain.RecommendReject,
			Refused:        true,
		}, nil
	}

	var sb strings.Builder
	sources := make([]string, len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "[Source %d] (%s)\n%s\n\n", i+1, r.Unit.UnitID(), r.Unit.Content())
		sources[i] = r.Unit.Content()
	}

	prompt := fmt.Sprintf(answerPromptTemplate, sb.String(), question)
	answer, err := u.llm.Complete(ctx, prompt, port.CompletionOptions{
		SystemPrompt: answerSystemPrompt,
		Temperature:  0.2,
		MaxTokens:    1024,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	validation := u.validator.Validate(ctx, question, answer, sources)

	effective := validation.Recommendation
	if u.strict && effective == domain.RecommendFlag {
		effective = domain.RecommendReject
	}

	result := &AnswerResult{
		Question:       question,
		Answer:         answer,
		Sources:        results,
		Validation:     validation,
		Recommendation: effective,
	}
	if effective == domain.RecommendReject {
		u.logger.InfoContext(ctx, "answer rejected by validation",
			"dataset", datasetID, "confidence", validation.Confidence, "concerns", len(validation.Concerns))
		result.Answer = RefusalMessage
		result.Refused = true
	}
	return result, nil
}
