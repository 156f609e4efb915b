package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Fusion implements the interface.
var _ driving.FusionService = (*Fusion)(nil)

// Fusion merges cleaned page text with the page's vision description.
type Fusion struct {
	llm       driven.LLMService
	artifacts driven.ArtifactStore
	prompts   driven.PromptStore
	gen       domain.GenerationSettings
	retry     RetryPolicy
}

// NewFusion creates a fusion engine with the given sampling parameters.
func NewFusion(
	llm driven.LLMService,
	artifacts driven.ArtifactStore,
	prompts driven.PromptStore,
	gen domain.GenerationSettings,
	retry RetryPolicy,
) *Fusion {
	return &Fusion{llm: llm, artifacts: artifacts, prompts: prompts, gen: gen, retry: retry}
}

// Fuse produces the unified document for one page.
func (f *Fusion) Fuse(ctx context.Context, page domain.Page, description string) (string, error) {
	if f.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	prompt, err := renderPrompt(f.prompts, driven.PromptFusion, map[string]string{
		"extracted":   page.Text(),
		"description": description,
	})
	if err != nil {
		return "", err
	}
	opts := driven.GenerateOptions{MaxTokens: f.gen.MaxTokens, TopP: f.gen.TopP}.WithTemperature(f.gen.Temperature)

	text, err := withRetry(ctx, f.retry, "fusion "+page.Key().String(), func(ctx context.Context) (string, error) {
		return f.llm.Generate(ctx, prompt, opts)
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("fusion %s: empty response", page.Key())
	}
	return text, nil
}

// FuseDocument fuses every cleaned page that has a description.
// Pages without a description, and pages whose fusion fails, are skipped.
func (f *Fusion) FuseDocument(ctx context.Context, documentID string) (*domain.StageReport, error) {
	doc, err := f.artifacts.LoadPages(ctx, driven.StageCleaned, documentID)
	if err != nil {
		return nil, fmt.Errorf("load cleaned %s: %w", documentID, err)
	}
	report := domain.NewStageReport(domain.StageFuse)
	report.Documents = 1

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		key := page.Key()
		description, err := f.artifacts.LoadDescription(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("No description for %s, skipping", key)
				report.Skipped++
				continue
			}
			logger.Error("Load description %s: %v", key, err)
			report.Fail(key.String(), err)
			continue
		}

		unified, err := f.Fuse(ctx, page, description)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Error("Fuse %s: %v", key, err)
			report.Fail(key.String(), err)
			continue
		}
		if err := f.artifacts.SaveUnified(ctx, key, unified); err != nil {
			logger.Error("Save unified %s: %v", key, err)
			report.Fail(key.String(), err)
			continue
		}
		report.Pages++
		logger.Debug("Fused %s", key)
	}
	logger.Info("Fused %s: %d pages, %d without description, %d failed",
		documentID, report.Pages, report.Skipped, len(report.Failures))
	return report, nil
}

// FuseAll fuses every cleaned document.
func (f *Fusion) FuseAll(ctx context.Context) (*domain.StageReport, error) {
	ids, err := f.artifacts.Documents(ctx, driven.StageCleaned)
	if err != nil {
		return nil, fmt.Errorf("list cleaned documents: %w", err)
	}
	total := domain.NewStageReport(domain.StageFuse)
	for _, id := range ids {
		report, err := f.FuseDocument(ctx, id)
		total.Add(report)
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			logger.Error("Fuse %s: %v", id, err)
			total.Fail(id, err)
		}
	}
	return total, nil
}
