package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure VisionDescriber implements the interface.
var _ driving.VisionService = (*VisionDescriber)(nil)

// VisionConfig tunes page description.
type VisionConfig struct {
	MaxTokens   int
	Concurrency int
	Retry       RetryPolicy
}

// backoffThrottle is a throttle that can pause all callers after the
// service reports a rate limit. A zero duration uses its default.
type backoffThrottle interface {
	Backoff(d time.Duration)
}

// VisionDescriber describes page images with a vision model.
// Calls are spaced by the throttle; with Concurrency > 1 several may be in flight.
type VisionDescriber struct {
	vision    driven.VisionService
	artifacts driven.ArtifactStore
	prompts   driven.PromptStore
	throttle  driven.Throttle
	cfg       VisionConfig
}

// NewVisionDescriber creates a describer. throttle may be nil.
func NewVisionDescriber(
	vision driven.VisionService,
	artifacts driven.ArtifactStore,
	prompts driven.PromptStore,
	throttle driven.Throttle,
	cfg VisionConfig,
) *VisionDescriber {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &VisionDescriber{vision: vision, artifacts: artifacts, prompts: prompts, throttle: throttle, cfg: cfg}
}

// errThrottleWait marks a failure to pass the throttle; it aborts the run.
var errThrottleWait = errors.New("waiting for vision throttle")

// Describe returns the model's description of one page image.
// Any failure is logged and reported as ("", false).
func (v *VisionDescriber) Describe(ctx context.Context, image domain.PageImage) (string, bool) {
	text, err := v.describe(ctx, image)
	if err != nil {
		logger.Error("Describe %s: %v", image.Key, err)
		return "", false
	}
	return text, true
}

// describe calls the vision model. Every attempt, retries included, passes
// the throttle first.
func (v *VisionDescriber) describe(ctx context.Context, image domain.PageImage) (string, error) {
	if v.vision == nil {
		return "", domain.ErrLLMUnavailable
	}
	data, err := os.ReadFile(image.Path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	prompt, err := renderPrompt(v.prompts, driven.PromptVisionDescribe, nil)
	if err != nil {
		return "", err
	}

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
	opts := driven.GenerateOptions{MaxTokens: v.cfg.MaxTokens}
	text, err := withRetry(ctx, v.cfg.Retry, "vision "+image.Key.String(), func(callCtx context.Context) (string, error) {
		if v.throttle != nil {
			if err := v.throttle.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: %w", errThrottleWait, err)
			}
		}
		out, err := v.vision.DescribeImage(callCtx, prompt, uri, opts)
		if errors.Is(err, domain.ErrRateLimited) {
			if b, ok := v.throttle.(backoffThrottle); ok {
				b.Backoff(0)
			}
		}
		return out, err
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty description")
	}
	return text, nil
}

// DescribeDocument describes every rendered page of a document.
// Pages that already have a description are skipped unless force is set.
func (v *VisionDescriber) DescribeDocument(ctx context.Context, documentID string, force bool) (*domain.StageReport, error) {
	images, err := v.artifacts.Images(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list images of %s: %w", documentID, err)
	}
	report := domain.NewStageReport(domain.StageDescribe)
	report.Documents = 1
	if len(images) == 0 {
		logger.Warn("No page images for %s", documentID)
		return report, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Concurrency)

	for _, img := range images {
		if !force {
			if _, err := v.artifacts.LoadDescription(gctx, img.Key); err == nil {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				continue
			}
		}
		g.Go(func() error {
			text, err := v.describe(gctx, img)
			if errors.Is(err, errThrottleWait) {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("Describe %s: %v", img.Key, err)
				report.Fail(img.Key.String(), err)
				return nil
			}
			if err := v.artifacts.SaveDescription(gctx, img.Key, text); err != nil {
				logger.Error("Save description %s: %v", img.Key, err)
				report.Fail(img.Key.String(), err)
				return nil
			}
			report.Pages++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	logger.Info("Described %s: %d pages, %d skipped, %d failed",
		documentID, report.Pages, report.Skipped, len(report.Failures))
	return report, nil
}

// DescribeAll describes every rasterised document.
func (v *VisionDescriber) DescribeAll(ctx context.Context, force bool) (*domain.StageReport, error) {
	ids, err := v.artifacts.Documents(ctx, driven.StageImages)
	if err != nil {
		return nil, fmt.Errorf("list rasterised documents: %w", err)
	}
	total := domain.NewStageReport(domain.StageDescribe)
	for _, id := range ids {
		report, err := v.DescribeDocument(ctx, id, force)
		total.Add(report)
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			logger.Error("Describe %s: %v", id, err)
			total.Fail(id, err)
		}
	}
	return total, nil
}
