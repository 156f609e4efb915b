package ai

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// pinger is any service that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// ConfigValidator checks the configured AI services.
type ConfigValidator struct {
	factory *Factory
}

// NewConfigValidator creates a validator that obtains services from factory.
func NewConfigValidator(factory *Factory) *ConfigValidator {
	return &ConfigValidator{factory: factory}
}

// ValidateLLM pings the text generation service.
func (v *ConfigValidator) ValidateLLM(ctx context.Context) domain.CheckResult {
	settings := v.factory.settings.LLM
	name := "llm (" + settings.Provider.String() + "/" + settings.Model + ")"
	if !settings.IsConfigured() {
		return skipped(name, settings.Provider)
	}
	svc, err := v.factory.LLM(ctx)
	if err != nil {
		return failed(name, err)
	}
	return ping(ctx, name, svc)
}

// ValidateVision pings the vision service.
func (v *ConfigValidator) ValidateVision(ctx context.Context) domain.CheckResult {
	settings := v.factory.settings.Vision
	name := "vision (" + settings.Provider.String() + "/" + settings.Model + ")"
	if !settings.IsConfigured() {
		return skipped(name, settings.Provider)
	}
	svc, err := v.factory.Vision(ctx)
	if err != nil {
		return failed(name, err)
	}
	return ping(ctx, name, svc)
}

// ValidateEmbedding pings the embedding service for model.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, model string) domain.CheckResult {
	settings := v.factory.settings.Embedding
	name := "embedding (" + settings.Provider.String() + "/" + model + ")"
	if !settings.IsConfigured() {
		return skipped(name, settings.Provider)
	}
	svc, err := v.factory.ForModel(ctx, model)
	if err != nil {
		return failed(name, err)
	}
	return ping(ctx, name, svc)
}

// ValidateStore pings the vector store.
func (v *ConfigValidator) ValidateStore(ctx context.Context, store driven.VectorStore) domain.CheckResult {
	return ping(ctx, "vector store ("+string(v.factory.settings.VectorStore.Backend)+")", store)
}

func ping(ctx context.Context, name string, svc pinger) domain.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return failed(name, err)
	}
	return domain.CheckResult{Name: name, Status: domain.CheckOK}
}

func failed(name string, err error) domain.CheckResult {
	return domain.CheckResult{Name: name, Status: domain.CheckFailed, Detail: err.Error()}
}

// skipped reports a provider without credentials, naming the variable to set.
func skipped(name string, provider domain.AIProvider) domain.CheckResult {
	detail := "not configured"
	if env := provider.APIKeyEnv(); env != "" {
		detail = "set " + env
	}
	return domain.CheckResult{Name: name, Status: domain.CheckSkipped, Detail: detail}
}
