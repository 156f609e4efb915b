package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure Evaluator implements the interface.
var _ driving.EvaluationService = (*Evaluator)(nil)

// Evaluator scores answers through an evaluation harness.
type Evaluator struct {
	harness driven.EvaluationHarness
}

// NewEvaluator creates an evaluator. harness may be nil.
func NewEvaluator(harness driven.EvaluationHarness) *Evaluator {
	return &Evaluator{harness: harness}
}

// Evaluate returns all four metrics or ErrMetricsUnavailable.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	result *domain.RetrievalResult,
	reference string,
) (*domain.EvaluationScores, error) {
	if e.harness == nil {
		return nil, fmt.Errorf("%w: no evaluation harness configured", domain.ErrMetricsUnavailable)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no result to evaluate", domain.ErrMetricsUnavailable)
	}
	scores, err := e.harness.Score(ctx, domain.EvaluationRecord{
		Question:  result.Question,
		Answer:    result.Answer,
		Contexts:  result.Contexts(),
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMetricsUnavailable, err)
	}
	if scores == nil {
		return nil, fmt.Errorf("%w: harness returned no scores", domain.ErrMetricsUnavailable)
	}
	return scores, nil
}
