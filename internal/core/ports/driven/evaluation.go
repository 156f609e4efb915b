package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// EvaluationHarness computes answer-quality metrics for one record.
// It returns all four metrics or an error; never a partial set.
type EvaluationHarness interface {
	Score(ctx context.Context, record domain.EvaluationRecord) (*domain.EvaluationScores, error)
}
