// Package gemini builds generation services on the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/llm/chat"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// DefaultModel is used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Config holds configuration for the Gemini chat model.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the chat model to use (default: gemini-2.0-flash).
	Model string

	// MaxTokens bounds responses that do not set their own limit.
	MaxTokens int
}

// NewLLMService creates a generation service backed by Gemini.
// The result also serves vision requests.
func NewLLMService(ctx context.Context, cfg Config) (*chat.Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", domain.ErrLLMUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	cm, err := einogemini.NewChatModel(ctx, &einogemini.Config{
		Client: client,
		Model:  cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat model: %w", err)
	}

	return chat.New(cm, "gemini", cfg.Model, chat.WithDefaultMaxTokens(cfg.MaxTokens)), nil
}
