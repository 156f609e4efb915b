package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// AskRequest is one question against a collection.
type AskRequest struct {
	Question string

	// Reference is the expected answer, used only for evaluation.
	Reference string

	// FileID restricts retrieval to one document when set.
	FileID *int

	// Collection overrides the configured collection.
	Collection string

	// TopK overrides the configured number of retrieved chunks.
	TopK int

	// Evaluate requests metric scoring against Reference.
	Evaluate bool
}

// AskResponse carries the answer and, when requested, its scores.
type AskResponse struct {
	Result *domain.RetrievalResult `json:"result"`

	// Scores is nil when evaluation was not requested or failed.
	Scores *domain.EvaluationScores `json:"scores,omitempty"`

	// EvaluationError explains why Scores is nil after a requested evaluation.
	EvaluationError string `json:"evaluation_error,omitempty"`
}

// AnswerService answers questions from a collection.
type AnswerService interface {
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)
}

// EvaluationService scores an answer against a reference.
type EvaluationService interface {
	Evaluate(ctx context.Context, result *domain.RetrievalResult, reference string) (*domain.EvaluationScores, error)
}

// DocumentService exposes the unified pages of a document.
type DocumentService interface {
	Pages(ctx context.Context, documentID string) ([]domain.Unit, error)
	List(ctx context.Context) ([]string, error)
}
