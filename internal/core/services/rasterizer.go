package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Rasterizer implements the interface.
var _ driving.RasterService = (*Rasterizer)(nil)

// Rasterizer renders every page of a document to an image.
type Rasterizer struct {
	pdf       driven.PDFToolkit
	artifacts driven.ArtifactStore
	rawDir    string
	pattern   string
}

// NewRasterizer creates a rasterizer over the corpus at rawDir.
func NewRasterizer(pdf driven.PDFToolkit, artifacts driven.ArtifactStore, rawDir, pattern string) *Rasterizer {
	return &Rasterizer{pdf: pdf, artifacts: artifacts, rawDir: rawDir, pattern: pattern}
}

// Rasterize renders all pages. Pages that fail to render are logged and left out.
func (r *Rasterizer) Rasterize(ctx context.Context, path string) ([]domain.PageImage, error) {
	docID := domain.DocumentIDFromPath(path)
	count, err := r.pdf.PageCount(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentUnreadable, path, err)
	}

	images := make([]domain.PageImage, 0, count)
	for n := 1; n <= count; n++ {
		if err := ctx.Err(); err != nil {
			return images, err
		}
		key := domain.PageKey{DocumentID: docID, Page: n}
		out, err := r.artifacts.ImagePath(key)
		if err != nil {
			return images, fmt.Errorf("image path for %s: %w", key, err)
		}
		if err := r.pdf.RenderPage(ctx, path, n, out); err != nil {
			logger.Error("Render %s: %v", key, err)
			continue
		}
		images = append(images, domain.PageImage{Key: key, Path: out})
	}
	logger.Info("Rendered %s: %d of %d pages", docID, len(images), count)
	return images, nil
}

// RasterizeFiles renders each document, isolating failures per document.
func (r *Rasterizer) RasterizeFiles(ctx context.Context, paths []string) (*domain.StageReport, error) {
	report := domain.NewStageReport(domain.StageRasterize)
	for _, path := range paths {
		images, err := r.Rasterize(ctx, path)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err != nil {
			logger.Error("Rasterize %s: %v", path, err)
			report.Fail(domain.DocumentIDFromPath(path), err)
			continue
		}
		report.Documents++
		report.Pages += len(images)
	}
	return report, nil
}

// RasterizeAll renders every document in the corpus.
func (r *Rasterizer) RasterizeAll(ctx context.Context) (*domain.StageReport, error) {
	paths, err := discoverDocuments(r.rawDir, r.pattern)
	if err != nil {
		return nil, err
	}
	return r.RasterizeFiles(ctx, paths)
}
