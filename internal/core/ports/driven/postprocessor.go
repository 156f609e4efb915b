package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// PostProcessor turns a logical unit into chunks or transforms existing chunks.
// PostProcessors are chained in a pipeline (chunking, then metadata filtering).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the unit and the chunks produced so far.
	// A chunker receives nil and returns new chunks.
	Process(ctx context.Context, unit *domain.Unit, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the unit through all processors in order.
	Process(ctx context.Context, unit *domain.Unit) ([]domain.Chunk, error)

	// ProcessAll runs every unit and concatenates the chunks in unit order.
	ProcessAll(ctx context.Context, units []domain.Unit) ([]domain.Chunk, error)
}

// PipelineBuilder builds the processing pipeline for one collection configuration.
type PipelineBuilder interface {
	Build(cfg domain.CollectionConfig) (PostProcessorPipeline, error)
}
