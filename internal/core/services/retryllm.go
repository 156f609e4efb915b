package services

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

var _ driven.LLMService = (*RetryingLLM)(nil)

// RetryingLLM applies a RetryPolicy to every Generate call of the wrapped service.
type RetryingLLM struct {
	llm   driven.LLMService
	retry RetryPolicy
}

// NewRetryingLLM wraps llm with the retry policy.
func NewRetryingLLM(llm driven.LLMService, retry RetryPolicy) *RetryingLLM {
	return &RetryingLLM{llm: llm, retry: retry}
}

// Generate retries transient failures under the per-call timeout.
func (r *RetryingLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return withRetry(ctx, r.retry, "generate", func(callCtx context.Context) (string, error) {
		return r.llm.Generate(callCtx, prompt, opts)
	})
}

func (r *RetryingLLM) ModelName() string { return r.llm.ModelName() }

func (r *RetryingLLM) Ping(ctx context.Context) error { return r.llm.Ping(ctx) }

func (r *RetryingLLM) Close() error { return r.llm.Close() }
