package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure CollectionBuilder implements the interface.
var _ driving.CollectionService = (*CollectionBuilder)(nil)

// CollectionBuilderConfig tunes collection builds.
type CollectionBuilderConfig struct {
	// Plan is the configured plan; DocumentIDs may be left empty.
	Plan           domain.CollectionPlan
	EmbedBatchSize int
	Concurrency    int
	Retry          RetryPolicy
}

// CollectionBuilder chunks, embeds and indexes fused pages, once per
// configuration of the plan's cross product.
type CollectionBuilder struct {
	artifacts  driven.ArtifactStore
	metadata   driven.MetadataSource
	embeddings driven.EmbeddingProvider
	store      driven.VectorStore
	pipelines  driven.PipelineBuilder
	cfg        CollectionBuilderConfig
}

// NewCollectionBuilder creates a builder. metadata may be nil.
func NewCollectionBuilder(
	artifacts driven.ArtifactStore,
	metadata driven.MetadataSource,
	embeddings driven.EmbeddingProvider,
	store driven.VectorStore,
	pipelines driven.PipelineBuilder,
	cfg CollectionBuilderConfig,
) *CollectionBuilder {
	if cfg.EmbedBatchSize < 1 {
		cfg.EmbedBatchSize = 64
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &CollectionBuilder{
		artifacts:  artifacts,
		metadata:   metadata,
		embeddings: embeddings,
		store:      store,
		pipelines:  pipelines,
		cfg:        cfg,
	}
}

// Plan returns the configured plan. When it names no documents, every
// document with fusion output is selected.
func (b *CollectionBuilder) Plan(ctx context.Context) (domain.CollectionPlan, error) {
	plan := b.cfg.Plan
	if len(plan.DocumentIDs) > 0 {
		return plan, nil
	}
	ids, err := b.artifacts.Documents(ctx, driven.StageUnified)
	if err != nil {
		return plan, fmt.Errorf("list fused documents: %w", err)
	}
	plan.DocumentIDs = ids
	return plan, nil
}

// List returns the collections in the vector store.
func (b *CollectionBuilder) List(ctx context.Context) ([]string, error) {
	names, err := b.store.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return names, nil
}

// Build runs LOAD_CONFIG, LOAD_METADATA, LOAD_DOCUMENTS, then CHUNK and
// EMBED_AND_UPSERT for every configuration. A failing configuration is
// recorded in the report; an unreachable store aborts the whole run.
func (b *CollectionBuilder) Build(ctx context.Context, plan domain.CollectionPlan) (*domain.BuildReport, error) {
	logger.Section("Collection build")
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	table, err := b.loadMetadata(ctx)
	if err != nil {
		return nil, err
	}

	units, err := b.loadUnits(ctx, plan, table)
	if err != nil {
		return nil, err
	}
	report := &domain.BuildReport{Units: len(units)}
	if len(units) == 0 {
		return report, fmt.Errorf("%w: no fused pages for the selected documents", domain.ErrNotFound)
	}

	configs := plan.Configs()
	report.Outcomes = make([]domain.CollectionOutcome, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, cfg := range configs {
		g.Go(func() error {
			n, err := b.buildOne(gctx, cfg, units)
			report.Outcomes[i] = domain.CollectionOutcome{Config: cfg, Chunks: n, Err: err}
			if err != nil {
				logger.Error("Collection %s: %v", cfg.Name, err)
				if errors.Is(err, domain.ErrStoreUnavailable) {
					return err
				}
				return nil
			}
			logger.Info("Collection %s: %d chunks", cfg.Name, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	var errs []error
	for _, o := range report.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Config.Name, o.Err))
		}
	}
	return report, errors.Join(errs...)
}

func (b *CollectionBuilder) loadMetadata(ctx context.Context) (map[int]map[string]any, error) {
	if b.metadata == nil {
		return nil, nil
	}
	table, err := b.metadata.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Metadata side-table not found, continuing without it")
			return nil, nil
		}
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	logger.Debug("Loaded metadata for %d documents", len(table))
	return table, nil
}

// loadUnits merges every selected document's fused pages into one corpus
// and attaches provenance and side-table metadata.
func (b *CollectionBuilder) loadUnits(
	ctx context.Context,
	plan domain.CollectionPlan,
	table map[int]map[string]any,
) ([]domain.Unit, error) {
	var all []domain.Unit
	for _, id := range plan.Selected() {
		units, err := b.artifacts.LoadUnits(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load fused pages of %s: %w", id, err)
		}
		if len(units) == 0 {
			logger.Warn("No fused pages for %s", id)
			continue
		}

		fileID, idErr := domain.FileID(id)
		if idErr != nil {
			logger.Warn("Document %s: %v", id, idErr)
		}
		var row map[string]any
		if idErr == nil && table != nil {
			if row = table[fileID]; row == nil {
				logger.Warn("Document %s: no side-table row for id %d", id, fileID)
			}
		}

		for i := range units {
			md := domain.Metadata{
				domain.MetaSource:   units[i].Source,
				domain.MetaPage:     units[i].Page,
				domain.MetaDocument: id,
			}
			if idErr == nil {
				md[domain.MetaFileID] = fileID
			}
			md.Merge(row)
			md.Merge(units[i].Metadata)
			units[i].Metadata = md
		}
		all = append(all, units...)
	}
	logger.Info("Loaded %d fused pages from %d documents", len(all), len(plan.Selected()))
	return all, nil
}

// buildOne chunks and embeds before touching the store, so a failed
// embedding run leaves the previous collection in place.
func (b *CollectionBuilder) buildOne(ctx context.Context, cfg domain.CollectionConfig, units []domain.Unit) (int, error) {
	pipeline, err := b.pipelines.Build(cfg)
	if err != nil {
		return 0, fmt.Errorf("build pipeline: %w", err)
	}
	chunks, err := pipeline.ProcessAll(ctx, units)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no non-empty chunks", domain.ErrInvalidInput)
	}

	embedder, err := b.embeddings.ForModel(ctx, cfg.EmbeddingModel)
	if err != nil {
		return 0, fmt.Errorf("embedding model %s: %w", cfg.EmbeddingModel, err)
	}
	if err := b.embed(ctx, embedder, chunks); err != nil {
		return 0, err
	}

	dims := len(chunks[0].Embedding)
	if err := b.store.Recreate(ctx, cfg.Name, dims); err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}
	if err := b.store.Upsert(ctx, cfg.Name, chunks); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(chunks), nil
}

func (b *CollectionBuilder) embed(ctx context.Context, embedder driven.EmbeddingService, chunks []domain.Chunk) error {
	size := b.cfg.EmbedBatchSize
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, chunks[i].Content)
		}

		op := fmt.Sprintf("embed %s [%d:%d]", embedder.ModelName(), start, end)
		vectors, err := withRetry(ctx, b.cfg.Retry, op, func(ctx context.Context) ([][]float32, error) {
			return embedder.EmbedBatch(ctx, texts)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%s: got %d vectors for %d texts", op, len(vectors), len(texts))
		}
		for i, v := range vectors {
			chunks[start+i].Embedding = v
		}
	}
	return nil
}
