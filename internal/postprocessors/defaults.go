package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/manualqa/internal/postprocessors/metadata"
)

// Processor names known to the default registry.
const (
	ProcessorChunker  = "chunker"
	ProcessorMetadata = "metadata"
)

// DefaultProcessors is the processing order used for collection builds.
var DefaultProcessors = []string{ProcessorChunker, ProcessorMetadata}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(ProcessorChunker, buildChunker)
	r.Register(ProcessorMetadata, func(map[string]any) (driven.PostProcessor, error) {
		return metadata.New(), nil
	})
}

// BuildPipeline builds the named processors in order with per-processor config.
func BuildPipeline(r *Registry, names []string, cfgs map[string]map[string]any) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range names {
		proc, err := r.Build(name, cfgs[name])
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// ChunkerConfig renders a collection configuration as chunker config.
func ChunkerConfig(cfg domain.CollectionConfig) map[string]any {
	return map[string]any{
		"chunk_size": cfg.ChunkSize,
		"overlap":    cfg.ChunkOverlap,
		"namespace":  cfg.Name,
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size: "page" or a positive integer (default: page)
//   - overlap (int): Overlapping characters between windows (default: 0)
//   - namespace (string): Scope for deterministic chunk IDs
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if raw, ok := cfg["chunk_size"]; ok {
		size, err := domain.ParseChunkSize(raw)
		if err != nil {
			return nil, fmt.Errorf("chunk_size: %w", err)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap := getIntFromConfig(cfg, "overlap"); overlap > 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if ns, ok := cfg["namespace"].(string); ok {
		opts = append(opts, chunker.WithNamespace(ns))
	}

	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
