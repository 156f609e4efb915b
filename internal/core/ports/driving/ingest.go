package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// ExtractionService turns PDFs into per-page raw text.
type ExtractionService interface {
	// Extract reads every page of one document. Per-page failures are
	// recorded on the page; only an unreadable document is an error.
	Extract(ctx context.Context, path string) (*domain.Document, error)

	// ExtractFiles extracts and persists the given documents.
	ExtractFiles(ctx context.Context, paths []string) (*domain.StageReport, error)

	// ExtractAll extracts and persists every document in the corpus.
	ExtractAll(ctx context.Context) (*domain.StageReport, error)
}

// CleaningService removes boilerplate from extracted pages.
type CleaningService interface {
	Clean(text string) string
	CleanDocument(ctx context.Context, documentID string) (*domain.Document, error)
	CleanAll(ctx context.Context) (*domain.StageReport, error)
}

// RasterService renders document pages to images.
type RasterService interface {
	Rasterize(ctx context.Context, path string) ([]domain.PageImage, error)
	RasterizeFiles(ctx context.Context, paths []string) (*domain.StageReport, error)
	RasterizeAll(ctx context.Context) (*domain.StageReport, error)
}

// VisionService describes rendered pages.
type VisionService interface {
	// Describe never fails: a failed call yields ("", false).
	Describe(ctx context.Context, image domain.PageImage) (string, bool)

	// DescribeDocument describes and persists every raster of a document.
	DescribeDocument(ctx context.Context, documentID string, force bool) (*domain.StageReport, error)

	// DescribeAll covers every rasterised document.
	DescribeAll(ctx context.Context, force bool) (*domain.StageReport, error)
}

// FusionService merges cleaned text with vision descriptions.
type FusionService interface {
	Fuse(ctx context.Context, page domain.Page, description string) (string, error)
	FuseDocument(ctx context.Context, documentID string) (*domain.StageReport, error)
	FuseAll(ctx context.Context) (*domain.StageReport, error)
}

// IngestService chains the ingestion stages.
type IngestService interface {
	Run(ctx context.Context, opts domain.IngestOptions) ([]domain.StageReport, error)
}
