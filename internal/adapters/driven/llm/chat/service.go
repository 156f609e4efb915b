// Package chat adapts an eino chat model to the generation ports.
// Provider packages construct the model; this package drives it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Service implements both generation ports.
var (
	_ driven.LLMService    = (*Service)(nil)
	_ driven.VisionService = (*Service)(nil)
)

// PingFunc checks that the provider behind a model is reachable.
type PingFunc func(ctx context.Context) error

// Service generates text and image descriptions through an eino chat model.
type Service struct {
	model     model.BaseChatModel
	name      string
	provider  string
	maxTokens int
	ping      PingFunc
}

// Option customises a Service.
type Option func(*Service)

// WithDefaultMaxTokens bounds responses when a call does not set MaxTokens.
func WithDefaultMaxTokens(n int) Option {
	return func(s *Service) { s.maxTokens = n }
}

// WithPing sets the reachability check. Without one Ping sends a one-token prompt.
func WithPing(fn PingFunc) Option {
	return func(s *Service) { s.ping = fn }
}

// New wraps a chat model. provider labels errors, e.g. "openai".
func New(m model.BaseChatModel, provider, name string, opts ...Option) *Service {
	s := &Service{model: m, name: name, provider: provider}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate sends prompt as a single user turn.
func (s *Service) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.complete(ctx, schema.UserMessage(prompt), opts)
}

// DescribeImage sends the prompt and the image data URI in one user turn.
func (s *Service) DescribeImage(ctx context.Context, prompt, imageURI string, opts driven.GenerateOptions) (string, error) {
	if !strings.HasPrefix(imageURI, "data:") {
		return "", fmt.Errorf("%w: image must be a data URI", domain.ErrInvalidInput)
	}
	msg := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: prompt},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      imageURI,
					MIMEType: mimeType(imageURI),
					Detail:   schema.ImageURLDetailAuto,
				},
			},
		},
	}
	return s.complete(ctx, msg, opts)
}

func (s *Service) complete(ctx context.Context, msg *schema.Message, opts driven.GenerateOptions) (string, error) {
	resp, err := s.model.Generate(ctx, []*schema.Message{msg}, s.options(opts)...)
	if err != nil {
		return "", domain.ClassifyServiceError(s.provider, err)
	}
	if resp == nil {
		return "", domain.ClassifyServiceError(s.provider, errors.New("empty response"))
	}
	return resp.Content, nil
}

func (s *Service) options(opts driven.GenerateOptions) []model.Option {
	var out []model.Option
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.maxTokens
	}
	if maxTokens > 0 {
		out = append(out, model.WithMaxTokens(maxTokens))
	}
	if opts.HasTemperature || opts.Temperature > 0 {
		out = append(out, model.WithTemperature(float32(opts.Temperature)))
	}
	if opts.TopP > 0 {
		out = append(out, model.WithTopP(float32(opts.TopP)))
	}
	return out
}

// ModelName returns the name of the model being used.
func (s *Service) ModelName() string {
	return s.name
}

// Ping validates the service is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s.ping != nil {
		return s.ping(ctx)
	}
	_, err := s.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1})
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", s.provider, err)
	}
	return nil
}

// Close releases resources.
func (s *Service) Close() error {
	return nil
}

// mimeType reads the media type of a data URI, defaulting to JPEG.
func mimeType(uri string) string {
	header, _, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "image/jpeg"
	}
	media, _, _ := strings.Cut(header, ";")
	if media == "" {
		return "image/jpeg"
	}
	return media
}
