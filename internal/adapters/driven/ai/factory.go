// Package ai creates the generation and embedding adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ollamaembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/manualqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/chat"
	geminillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/gemini"
	openaillm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure Factory implements the interface.
var _ driven.EmbeddingProvider = (*Factory)(nil)

// CreateChatService creates a generation service for one model endpoint.
// The result serves both text and image requests.
func CreateChatService(ctx context.Context, settings domain.ModelSettings, timeout time.Duration) (*chat.Service, error) {
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(ctx, openaillm.LLMConfig{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			Timeout:   timeout,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:    settings.APIKey,
			Model:     settings.Model,
			MaxTokens: settings.MaxTokens,
		})

	case domain.AIProviderOllama:
		return nil, fmt.Errorf("%w: ollama serves embeddings only, use openai with base_url for a local chat model",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateEmbeddingService creates an embedding service for one model.
func CreateEmbeddingService(
	ctx context.Context,
	settings domain.EmbeddingSettings,
	model string,
	timeout time.Duration,
) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(ctx, openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   model,
			Timeout: timeout,
		})

	case domain.AIProviderGemini:
		return nil, fmt.Errorf("%w: gemini embeddings are not supported, use ollama or openai",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// Factory hands out the AI services of one run and owns their lifetime.
// Embedding services are cached per model.
type Factory struct {
	settings domain.AppSettings

	mu         sync.Mutex
	embeddings map[string]driven.EmbeddingService
	chats      []*chat.Service
}

// NewFactory creates a factory over the resolved settings.
func NewFactory(settings *domain.AppSettings) *Factory {
	return &Factory{
		settings:   *settings,
		embeddings: make(map[string]driven.EmbeddingService),
	}
}

// LLM returns the text generation service.
func (f *Factory) LLM(ctx context.Context) (*chat.Service, error) {
	return f.chat(ctx, f.settings.LLM, domain.ErrLLMUnavailable)
}

// Vision returns the image description service.
func (f *Factory) Vision(ctx context.Context) (*chat.Service, error) {
	return f.chat(ctx, f.settings.Vision, domain.ErrLLMUnavailable)
}

func (f *Factory) chat(ctx context.Context, settings domain.ModelSettings, sentinel error) (*chat.Service, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s is not configured", sentinel, settings.Provider)
	}
	svc, err := CreateChatService(ctx, settings, f.settings.Retry.CallTimeout)
	if err != nil {
		if errors.Is(err, sentinel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", sentinel, err)
	}
	f.mu.Lock()
	f.chats = append(f.chats, svc)
	f.mu.Unlock()
	return svc, nil
}

// ForModel returns the embedding service for model, creating it once.
func (f *Factory) ForModel(ctx context.Context, model string) (driven.EmbeddingService, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: embedding model is empty", domain.ErrInvalidInput)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if svc, ok := f.embeddings[model]; ok {
		return svc, nil
	}
	if !f.settings.Embedding.IsConfigured() {
		return nil, fmt.Errorf("%w: %s is not configured", domain.ErrEmbeddingUnavailable, f.settings.Embedding.Provider)
	}
	svc, err := CreateEmbeddingService(ctx, f.settings.Embedding, model, f.settings.Retry.CallTimeout)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	f.embeddings[model] = svc
	return svc, nil
}

// Close releases every service handed out.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, svc := range f.embeddings {
		errs = append(errs, svc.Close())
	}
	for _, svc := range f.chats {
		errs = append(errs, svc.Close())
	}
	f.embeddings = make(map[string]driven.EmbeddingService)
	f.chats = nil
	return errors.Join(errs...)
}
