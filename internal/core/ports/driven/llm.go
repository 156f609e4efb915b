package driven

import "context"

// LLMService provides text generation for fusion, answering and evaluation.
//
// Implementations include:
//   - OpenAI and OpenAI-compatible endpoints
//   - Google Gemini
type LLMService interface {
	// Generate produces a completion for a single-turn prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VisionService describes images with a vision-capable model.
type VisionService interface {
	// DescribeImage sends the prompt and the image (a data URI) in one user turn.
	DescribeImage(ctx context.Context, prompt, imageURI string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// GenerateOptions configures text generation behaviour.
// Zero values leave the provider default in place.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	// Set HasTemperature to send an explicit zero.
	Temperature    float64
	HasTemperature bool

	// TopP is nucleus sampling mass.
	TopP float64
}

// WithTemperature returns a copy with an explicit temperature.
func (o GenerateOptions) WithTemperature(t float64) GenerateOptions {
	o.Temperature = t
	o.HasTemperature = true
	return o
}
