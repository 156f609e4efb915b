package wiring

import (
	"context"
	"slices"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/pdf/poppler"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

var _ driving.HealthService = (*healthChecker)(nil)

// healthChecker checks the external tools, the AI services and the vector store.
type healthChecker struct {
	validator *ai.ConfigValidator
	settings  *domain.AppSettings

	// store is nil when the run did not connect one; Check opens it then.
	store driven.VectorStore
}

func (h *healthChecker) Check(ctx context.Context) []domain.CheckResult {
	results := []domain.CheckResult{
		toolCheck("poppler", poppler.CheckAvailable()),
		toolCheck("tesseract", tesseract.CheckAvailable()),
		h.validator.ValidateLLM(ctx),
		h.validator.ValidateVision(ctx),
	}

	models := []string{h.settings.Retrieval.EmbeddingModel}
	for _, m := range h.settings.Collections.Plan.EmbeddingModels {
		if !slices.Contains(models, m) {
			models = append(models, m)
		}
	}
	for _, m := range models {
		results = append(results, h.validator.ValidateEmbedding(ctx, m))
	}

	store := h.store
	if store == nil {
		s, err := OpenVectorStore(ctx, h.settings.VectorStore, h.settings.Retry.CallTimeout)
		if err != nil {
			return append(results, domain.CheckResult{
				Name:   "vector store (" + string(h.settings.VectorStore.Backend) + ")",
				Status: domain.CheckFailed,
				Detail: err.Error(),
			})
		}
		defer s.Close()
		store = s
	}
	return append(results, h.validator.ValidateStore(ctx, store))
}

func toolCheck(name string, err error) domain.CheckResult {
	if err != nil {
		return domain.CheckResult{Name: name, Status: domain.CheckFailed, Detail: err.Error()}
	}
	return domain.CheckResult{Name: name, Status: domain.CheckOK}
}
