package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// HealthService checks the external services and tools the pipeline uses.
type HealthService interface {
	Check(ctx context.Context) []domain.CheckResult
}
