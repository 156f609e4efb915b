package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Answerer implements the interface.
var _ driving.AnswerService = (*Answerer)(nil)

// DefaultTopK is the number of chunks retrieved when none is configured.
const DefaultTopK = 4

// Answerer answers questions from a collection: embed, retrieve, generate.
type Answerer struct {
	embeddings driven.EmbeddingProvider
	store      driven.VectorStore
	llm        driven.LLMService
	prompts    driven.PromptStore
	evaluator  driving.EvaluationService
	cfg        domain.RetrievalSettings
	retry      RetryPolicy

	// plan maps collection names back to the embedding model they were built with.
	plan domain.CollectionPlan
}

// NewAnswerer creates an answerer. evaluator may be nil, in which case
// evaluation requests are answered without scores.
func NewAnswerer(
	embeddings driven.EmbeddingProvider,
	store driven.VectorStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	evaluator driving.EvaluationService,
	cfg domain.RetrievalSettings,
	retry RetryPolicy,
) *Answerer {
	return &Answerer{
		embeddings: embeddings,
		store:      store,
		llm:        llm,
		prompts:    prompts,
		evaluator:  evaluator,
		cfg:        cfg,
		retry:      retry,
	}
}

// WithPlan lets the answerer embed questions with the model a planned
// collection was built with, instead of retrieval.embedding_model.
func (a *Answerer) WithPlan(plan domain.CollectionPlan) *Answerer {
	a.plan = plan
	return a
}

// embeddingModel returns the model to embed a question for collection.
func (a *Answerer) embeddingModel(collection string) string {
	for _, cfg := range a.plan.Configs() {
		if cfg.Name == collection {
			return cfg.EmbeddingModel
		}
	}
	return a.cfg.EmbeddingModel
}

// Ask retrieves context for the question and generates a grounded answer.
func (a *Answerer) Ask(ctx context.Context, req driving.AskRequest) (*driving.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if req.Evaluate && strings.TrimSpace(req.Reference) == "" {
		return nil, fmt.Errorf("%w: evaluation needs a reference answer", domain.ErrInvalidInput)
	}
	collection := req.Collection
	if collection == "" {
		collection = a.cfg.Collection
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: no collection configured", domain.ErrInvalidInput)
	}
	if a.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	k := req.TopK
	if k <= 0 {
		k = a.cfg.TopK
	}
	if k <= 0 {
		k = DefaultTopK
	}

	docs, err := a.retrieve(ctx, collection, question, domain.VectorFilter{FileID: req.FileID}, k)
	if err != nil {
		return nil, err
	}
	result := &domain.RetrievalResult{Question: question, Documents: docs}

	prompt, err := renderPrompt(a.prompts, driven.PromptRAGAnswer, map[string]string{
		"context":  formatContext(result.Contexts()),
		"question": question,
	})
	if err != nil {
		return nil, err
	}
	gen := a.cfg.Generation
	opts := driven.GenerateOptions{MaxTokens: gen.MaxTokens, TopP: gen.TopP}.WithTemperature(gen.Temperature)
	answer, err := withRetry(ctx, a.retry, "answer", func(ctx context.Context) (string, error) {
		return a.llm.Generate(ctx, prompt, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	result.Answer = strings.TrimSpace(answer)
	logger.Debug("Answered from %d chunks of %s", len(docs), collection)

	resp := &driving.AskResponse{Result: result}
	if !req.Evaluate {
		return resp, nil
	}
	if a.evaluator == nil {
		resp.EvaluationError = domain.ErrMetricsUnavailable.Error()
		return resp, nil
	}
	scores, err := a.evaluator.Evaluate(ctx, result, req.Reference)
	if err != nil {
		logger.Warn("Evaluation failed: %v", err)
		resp.EvaluationError = err.Error()
		return resp, nil
	}
	resp.Scores = scores
	return resp, nil
}

func (a *Answerer) retrieve(
	ctx context.Context,
	collection, question string,
	filter domain.VectorFilter,
	k int,
) ([]domain.RetrievedChunk, error) {
	model := a.embeddingModel(collection)
	embedder, err := a.embeddings.ForModel(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("embedding model %s: %w", model, err)
	}
	vector, err := withRetry(ctx, a.retry, "embed question", func(ctx context.Context) ([]float32, error) {
		return embedder.Embed(ctx, question)
	})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	docs, err := a.store.Query(ctx, collection, vector, filter, k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return docs, nil
}

// formatContext joins the non-empty chunk texts with a blank line.
func formatContext(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
