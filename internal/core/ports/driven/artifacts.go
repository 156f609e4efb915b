package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Stage names a persisted artifact tree.
type Stage string

// Artifact trees, in pipeline order.
const (
	StageExtracted Stage = "extracted"
	StageCleaned   Stage = "cleaned"
	StageImages    Stage = "images"
	StageVision    Stage = "vision"
	StageUnified   Stage = "unified"
)

// ArtifactStore persists the intermediate artifacts exchanged between stages.
// Lookups are by document identifier and PageKey; any filename convention is
// private to the implementation.
type ArtifactStore interface {
	// SavePages writes the page records of a document.
	// Only StageExtracted and StageCleaned hold page records.
	SavePages(ctx context.Context, stage Stage, doc *domain.Document) error

	// LoadPages reads the page records of a document for a stage.
	// Returns domain.ErrNotFound if the stage has no record of the document.
	LoadPages(ctx context.Context, stage Stage, documentID string) (*domain.Document, error)

	// Documents lists the document identifiers persisted for a stage, sorted.
	Documents(ctx context.Context, stage Stage) ([]string, error)

	// ImagePath returns where the raster of a page lives, creating parent directories.
	ImagePath(key domain.PageKey) (string, error)

	// Images lists the rasters of a document in page order.
	Images(ctx context.Context, documentID string) ([]domain.PageImage, error)

	// SaveDescription stores the vision description of a page.
	SaveDescription(ctx context.Context, key domain.PageKey, text string) error

	// LoadDescription reads the vision description of a page.
	// Returns domain.ErrNotFound when absent.
	LoadDescription(ctx context.Context, key domain.PageKey) (string, error)

	// SaveUnified stores the fused document of a page.
	SaveUnified(ctx context.Context, key domain.PageKey, text string) error

	// LoadUnits reads every completed fusion output of a document.
	// A document with no output directory yields no units and no error.
	LoadUnits(ctx context.Context, documentID string) ([]domain.Unit, error)
}
