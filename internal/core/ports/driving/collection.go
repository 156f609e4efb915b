package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// CollectionService builds and lists vector collections.
type CollectionService interface {
	// Build creates one collection per plan configuration.
	// The report is returned even when some configurations fail.
	Build(ctx context.Context, plan domain.CollectionPlan) (*domain.BuildReport, error)

	// Plan returns the configured plan with document identifiers resolved
	// from the unified artifact tree.
	Plan(ctx context.Context) (domain.CollectionPlan, error)

	// List returns the collection names in the vector store.
	List(ctx context.Context) ([]string, error)
}
