package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Ingest implements the interface.
var _ driving.IngestService = (*Ingest)(nil)

// ErrIngestRunning is returned when a run is requested while one is in progress.
var ErrIngestRunning = errors.New("ingest already running")

// Ingest chains extraction, cleaning, rasterisation, vision and fusion.
type Ingest struct {
	extractor  driving.ExtractionService
	sanitizer  driving.CleaningService
	rasterizer driving.RasterService
	vision     driving.VisionService
	fusion     driving.FusionService

	mu      sync.Mutex
	running bool
}

// NewIngest creates the ingestion orchestrator.
func NewIngest(
	extractor driving.ExtractionService,
	sanitizer driving.CleaningService,
	rasterizer driving.RasterService,
	vision driving.VisionService,
	fusion driving.FusionService,
) *Ingest {
	return &Ingest{
		extractor:  extractor,
		sanitizer:  sanitizer,
		rasterizer: rasterizer,
		vision:     vision,
		fusion:     fusion,
	}
}

// Running reports whether a run is in progress.
func (i *Ingest) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

// Run executes every stage not skipped, in order. Failures of single
// documents or pages are recorded in the stage reports; a stage error
// stops the run and the reports gathered so far are returned.
func (i *Ingest) Run(ctx context.Context, opts domain.IngestOptions) ([]domain.StageReport, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, ErrIngestRunning
	}
	i.running = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	ids := make([]string, 0, len(opts.Files))
	for _, f := range opts.Files {
		ids = append(ids, domain.DocumentIDFromPath(f))
	}

	var reports []domain.StageReport
	for _, stage := range domain.AllIngestStages() {
		if opts.Skips(stage) {
			logger.Debug("Skipping stage %s", stage)
			continue
		}
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		logger.Section("Stage: " + string(stage))

		report, err := i.runStage(ctx, stage, opts, ids)
		if report != nil {
			reports = append(reports, *report)
			logger.Info("%s: %d documents, %d pages, %d skipped, %d failures",
				stage, report.Documents, report.Pages, report.Skipped, len(report.Failures))
		}
		if err != nil {
			return reports, fmt.Errorf("%s: %w", stage, err)
		}
	}
	return reports, nil
}

func (i *Ingest) runStage(
	ctx context.Context,
	stage domain.IngestStage,
	opts domain.IngestOptions,
	ids []string,
) (*domain.StageReport, error) {
	all := len(opts.Files) == 0
	switch stage {
	case domain.StageExtract:
		if all {
			return i.extractor.ExtractAll(ctx)
		}
		return i.extractor.ExtractFiles(ctx, opts.Files)
	case domain.StageClean:
		if all {
			return i.sanitizer.CleanAll(ctx)
		}
		return forEachDocument(ctx, stage, ids, func(ctx context.Context, id string) (*domain.StageReport, error) {
			doc, err := i.sanitizer.CleanDocument(ctx, id)
			if err != nil {
				return nil, err
			}
			return &domain.StageReport{Stage: stage, Documents: 1, Pages: doc.PageCount()}, nil
		})
	case domain.StageRasterize:
		if all {
			return i.rasterizer.RasterizeAll(ctx)
		}
		return i.rasterizer.RasterizeFiles(ctx, opts.Files)
	case domain.StageDescribe:
		if all {
			return i.vision.DescribeAll(ctx, opts.Force)
		}
		return forEachDocument(ctx, stage, ids, func(ctx context.Context, id string) (*domain.StageReport, error) {
			return i.vision.DescribeDocument(ctx, id, opts.Force)
		})
	case domain.StageFuse:
		if all {
			return i.fusion.FuseAll(ctx)
		}
		return forEachDocument(ctx, stage, ids, i.fusion.FuseDocument)
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, stage)
	}
}

// forEachDocument runs fn per document and folds the reports. A failing
// document is recorded and the loop moves on.
func forEachDocument(
	ctx context.Context,
	stage domain.IngestStage,
	ids []string,
	fn func(ctx context.Context, id string) (*domain.StageReport, error),
) (*domain.StageReport, error) {
	report := domain.NewStageReport(stage)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r, err := fn(ctx, id)
		if err != nil {
			logger.Error("%s %s: %v", stage, id, err)
			report.Fail(id, err)
			report.Documents++
			continue
		}
		report.Add(r)
	}
	return report, nil
}
