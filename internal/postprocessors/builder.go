package postprocessors

import (
	"maps"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

var _ driven.PipelineBuilder = (*Builder)(nil)

// Builder creates a pipeline per collection configuration from the
// configured processor list. The collection's chunk size, overlap and
// name override any chunker settings from configuration.
type Builder struct {
	registry *Registry
	config   domain.PipelineConfig
}

// NewBuilder creates a builder over a registry.
func NewBuilder(registry *Registry, config domain.PipelineConfig) *Builder {
	if len(config.Processors) == 0 {
		config.Processors = DefaultProcessors
	}
	return &Builder{registry: registry, config: config}
}

// Build returns the pipeline for cfg.
func (b *Builder) Build(cfg domain.CollectionConfig) (driven.PostProcessorPipeline, error) {
	cfgs := make(map[string]map[string]any, len(b.config.ProcessorConfigs)+1)
	for name, pc := range b.config.ProcessorConfigs {
		cfgs[name] = maps.Clone(pc)
	}
	chunkerCfg := cfgs[ProcessorChunker]
	if chunkerCfg == nil {
		chunkerCfg = make(map[string]any)
	}
	maps.Copy(chunkerCfg, ChunkerConfig(cfg))
	cfgs[ProcessorChunker] = chunkerCfg

	return BuildPipeline(b.registry, b.config.Processors, cfgs)
}
