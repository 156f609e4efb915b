package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byPageLabel is how the by-page sentinel appears in collection names.
const byPageLabel = "by-page"

// ChunkSize is either the by-page sentinel or a positive window length in characters.
type ChunkSize struct {
	byPage bool
	size   int
}

// ChunkByPage makes every logical unit exactly one chunk.
var ChunkByPage = ChunkSize{byPage: true}

// FixedChunkSize returns a window-based chunk size.
func FixedChunkSize(n int) ChunkSize {
	return ChunkSize{size: n}
}

// ByPage reports whether this is the by-page sentinel.
func (c ChunkSize) ByPage() bool {
	return c.byPage
}

// Size returns the window length, or 0 for by-page.
func (c ChunkSize) Size() int {
	return c.size
}

// String renders the size as it appears in collection names.
func (c ChunkSize) String() string {
	if c.byPage {
		return byPageLabel
	}
	return strconv.Itoa(c.size)
}

// Validate checks that a fixed size is positive.
func (c ChunkSize) Validate() error {
	if c.byPage {
		return nil
	}
	if c.size <= 0 {
		return fmt.Errorf("%w: chunk size must be %q or a positive integer, got %d", ErrInvalidInput, byPageLabel, c.size)
	}
	return nil
}

// ParseChunkSize converts a configuration value into a ChunkSize.
// Accepted forms are "page"/"by-page" (any case), positive integers,
// integral floats and numeric strings.
func ParseChunkSize(v any) (ChunkSize, error) {
	var n int
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		if s == "page" || s == byPageLabel || s == "bypage" {
			return ChunkByPage, nil
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return ChunkSize{}, fmt.Errorf("%w: chunk size must be %q or an integer, got %q", ErrInvalidInput, byPageLabel, t)
		}
		n = parsed
	case int:
		n = t
	case int32:
		n = int(t)
	case int64:
		n = int(t)
	case uint64:
		n = int(t)
	case float64:
		if t != math.Trunc(t) {
			return ChunkSize{}, fmt.Errorf("%w: chunk size must be an integer, got %v", ErrInvalidInput, t)
		}
		n = int(t)
	case ChunkSize:
		return t, t.Validate()
	default:
		return ChunkSize{}, fmt.Errorf("%w: unsupported chunk size %v (%T)", ErrInvalidInput, v, v)
	}
	cs := FixedChunkSize(n)
	return cs, cs.Validate()
}

// CollectionConfig is one point of the collection fan-out.
type CollectionConfig struct {
	Name           string
	EmbeddingModel string
	ChunkSize      ChunkSize
	ChunkOverlap   int
}

// Validate rejects configurations that cannot be chunked or embedded.
func (c CollectionConfig) Validate() error {
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return fmt.Errorf("%w: collection %q has no embedding model", ErrInvalidInput, c.Name)
	}
	if err := c.ChunkSize.Validate(); err != nil {
		return fmt.Errorf("collection %q: %w", c.Name, err)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: collection %q has negative overlap %d", ErrInvalidInput, c.Name, c.ChunkOverlap)
	}
	if !c.ChunkSize.ByPage() && c.ChunkOverlap >= c.ChunkSize.Size() {
		return fmt.Errorf("%w: collection %q overlap %d must be smaller than chunk size %d",
			ErrInvalidInput, c.Name, c.ChunkOverlap, c.ChunkSize.Size())
	}
	return nil
}

// CollectionName derives the deterministic name of a collection:
// {prefix}_chunk{size|by-page}_overlap{overlap}_{last path segment of model}.
func CollectionName(prefix, model string, size ChunkSize, overlap int) string {
	return fmt.Sprintf("%s_chunk%s_overlap%d_%s", prefix, size, overlap, ModelSuffix(model))
}

// ModelSuffix returns the trailing path segment of a model identifier.
func ModelSuffix(model string) string {
	model = strings.TrimRight(model, "/")
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

// CollectionPlan enumerates the collections one build run produces.
type CollectionPlan struct {
	// Prefix starts every collection name.
	Prefix string

	EmbeddingModels []string
	ChunkSizes      []ChunkSize

	// ChunkOverlaps defaults to [0] when empty.
	ChunkOverlaps []int

	// DocumentIDs are the unified-output directories to load.
	DocumentIDs []string

	// DocumentPrefix, when set, skips identifiers that do not start with it.
	DocumentPrefix string
}

// Overlaps returns the configured overlaps, defaulting to zero.
func (p CollectionPlan) Overlaps() []int {
	if len(p.ChunkOverlaps) == 0 {
		return []int{0}
	}
	return p.ChunkOverlaps
}

// Configs returns the full cross product of models × sizes × overlaps.
func (p CollectionPlan) Configs() []CollectionConfig {
	overlaps := p.Overlaps()
	configs := make([]CollectionConfig, 0, len(p.EmbeddingModels)*len(p.ChunkSizes)*len(overlaps))
	for _, model := range p.EmbeddingModels {
		for _, size := range p.ChunkSizes {
			for _, overlap := range overlaps {
				configs = append(configs, CollectionConfig{
					Name:           CollectionName(p.Prefix, model, size, overlap),
					EmbeddingModel: model,
					ChunkSize:      size,
					ChunkOverlap:   overlap,
				})
			}
		}
	}
	return configs
}

// Validate checks the plan and every configuration it generates.
func (p CollectionPlan) Validate() error {
	if err := p.ValidateConfigs(); err != nil {
		return err
	}
	if len(p.DocumentIDs) == 0 {
		return fmt.Errorf("%w: no document identifiers to process", ErrInvalidInput)
	}
	return nil
}

// ValidateConfigs checks the plan without requiring document identifiers.
func (p CollectionPlan) ValidateConfigs() error {
	if strings.TrimSpace(p.Prefix) == "" {
		return fmt.Errorf("%w: collection name prefix is required", ErrInvalidInput)
	}
	if len(p.EmbeddingModels) == 0 {
		return fmt.Errorf("%w: at least one embedding model is required", ErrInvalidInput)
	}
	if len(p.ChunkSizes) == 0 {
		return fmt.Errorf("%w: at least one chunk size is required", ErrInvalidInput)
	}

	seen := make(map[string]bool)
	for _, cfg := range p.Configs() {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if seen[cfg.Name] {
			return fmt.Errorf("%w: duplicate collection name %q", ErrInvalidInput, cfg.Name)
		}
		seen[cfg.Name] = true
	}
	return nil
}

// Selected returns the document identifiers that pass the prefix filter.
func (p CollectionPlan) Selected() []string {
	if p.DocumentPrefix == "" {
		return p.DocumentIDs
	}
	var ids []string
	for _, id := range p.DocumentIDs {
		if strings.HasPrefix(id, p.DocumentPrefix) {
			ids = append(ids, id)
		}
	}
	return ids
}

// CollectionOutcome is the result of building one collection.
type CollectionOutcome struct {
	Config CollectionConfig
	Chunks int
	Err    error
}

// BuildReport summarises one collection build run.
type BuildReport struct {
	Units    int
	Outcomes []CollectionOutcome
}

// Succeeded returns the number of collections built without error.
func (r *BuildReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}
