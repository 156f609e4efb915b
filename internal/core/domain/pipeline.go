package domain

import "fmt"

// IngestStage names one step of the ingestion chain.
type IngestStage string

// Ingestion stages in execution order.
const (
	StageExtract   IngestStage = "extract"
	StageClean     IngestStage = "clean"
	StageRasterize IngestStage = "rasterize"
	StageDescribe  IngestStage = "describe"
	StageFuse      IngestStage = "fuse"
)

// AllIngestStages returns the stages in execution order.
func AllIngestStages() []IngestStage {
	return []IngestStage{StageExtract, StageClean, StageRasterize, StageDescribe, StageFuse}
}

// ParseIngestStage validates a stage name.
func ParseIngestStage(s string) (IngestStage, error) {
	for _, st := range AllIngestStages() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, s)
}

// IngestOptions controls an ingestion run.
type IngestOptions struct {
	// Files restricts extraction and rasterisation to these PDFs.
	// Empty means the whole corpus.
	Files []string

	// Skip lists stages not to run.
	Skip []IngestStage

	// Force re-describes pages that already have a description.
	Force bool
}

// Skips reports whether the stage is skipped.
func (o IngestOptions) Skips(stage IngestStage) bool {
	for _, s := range o.Skip {
		if s == stage {
			return true
		}
	}
	return false
}

// StageReport summarises one stage over a set of documents.
type StageReport struct {
	Stage IngestStage

	// Documents processed, including ones with page failures.
	Documents int

	// Pages written by the stage.
	Pages int

	// Skipped counts pages left out (missing input or already done).
	Skipped int

	// Failures maps document or page keys to their error.
	Failures map[string]string
}

// NewStageReport returns an empty report for a stage.
func NewStageReport(stage IngestStage) *StageReport {
	return &StageReport{Stage: stage, Failures: make(map[string]string)}
}

// Fail records a failure under key.
func (r *StageReport) Fail(key string, err error) {
	r.Failures[key] = err.Error()
}

// Add folds another report of the same stage into r.
func (r *StageReport) Add(other *StageReport) {
	if other == nil {
		return
	}
	r.Documents += other.Documents
	r.Pages += other.Pages
	r.Skipped += other.Skipped
	for k, v := range other.Failures {
		r.Failures[k] = v
	}
}

// PipelineConfig configures the chunk post-processing pipeline.
type PipelineConfig struct {
	// Processors is the ordered list of processor names.
	Processors []string

	// ProcessorConfigs holds per-processor settings keyed by processor name.
	ProcessorConfigs map[string]map[string]any
}

// DefaultPipelineConfig returns the chunker followed by the metadata filter.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors:       []string{"chunker", "metadata"},
		ProcessorConfigs: make(map[string]map[string]any),
	}
}
