package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driving.ExtractionService = (*Extractor)(nil)

// ExtractorConfig locates the corpus.
type ExtractorConfig struct {
	RawDir  string
	Pattern string

	// TempDir holds page renders for OCR. Defaults to the system temp dir.
	TempDir string
}

// Extractor reads per-page text from PDFs, falling back to OCR for pages
// without an embedded text layer.
type Extractor struct {
	pdf       driven.PDFToolkit
	ocr       driven.OCREngine
	artifacts driven.ArtifactStore
	cfg       ExtractorConfig
}

// NewExtractor creates an extractor. ocr may be nil, in which case blank
// pages are recorded as optical failures.
func NewExtractor(
	pdf driven.PDFToolkit,
	ocr driven.OCREngine,
	artifacts driven.ArtifactStore,
	cfg ExtractorConfig,
) *Extractor {
	return &Extractor{pdf: pdf, ocr: ocr, artifacts: artifacts, cfg: cfg}
}

// Extract returns one page record per page, numbered from 1.
// Only a document that cannot be opened is an error.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.Document, error) {
	docID := domain.DocumentIDFromPath(path)
	logger.Info("Extracting %s", path)

	count, err := e.pdf.PageCount(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentUnreadable, path, err)
	}

	scratch, err := os.MkdirTemp(e.cfg.TempDir, "manualqa-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating OCR scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	doc := &domain.Document{ID: docID, Path: path, Pages: make([]domain.Page, 0, count)}
	for n := 1; n <= count; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := e.extractPage(ctx, path, docID, n, scratch)
		if page.Error != "" {
			logger.Error("Page %d of %s: %s", n, docID, page.Error)
		}
		doc.Pages = append(doc.Pages, page)
	}

	logger.Info("Extracted %s: %d pages, %d failed", docID, doc.PageCount(), len(doc.Failed()))
	return doc, nil
}

// extractPage never fails: errors and adapter panics land on the page record.
func (e *Extractor) extractPage(ctx context.Context, path, docID string, n int, scratch string) (page domain.Page) {
	page = domain.Page{DocumentID: docID, Number: n}
	defer func() {
		if r := recover(); r != nil {
			page.RawText = ""
			page.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	text, err := e.pdf.ExtractText(ctx, path, n)
	if err == nil && strings.TrimSpace(text) != "" {
		page.RawText = strings.TrimSpace(text)
		page.Method = domain.ExtractionStructural
		return page
	}
	if err != nil {
		logger.Debug("Structural extraction of %s page %d failed: %v", docID, n, err)
	}

	page.Method = domain.ExtractionOptical
	logger.Info("No text layer on %s page %d, running OCR", docID, n)

	if e.ocr == nil {
		page.Error = "no text layer and OCR is not configured"
		return page
	}

	img := filepath.Join(scratch, fmt.Sprintf("page_%d.jpg", n))
	if err := e.pdf.RenderPage(ctx, path, n, img); err != nil {
		page.Error = fmt.Sprintf("render for OCR: %v", err)
		return page
	}
	text, err = e.ocr.Recognise(ctx, img)
	if err != nil {
		page.Error = fmt.Sprintf("ocr: %v", err)
		return page
	}
	page.RawText = strings.TrimSpace(text)
	return page
}

// ExtractFiles extracts and persists each document. A failing document is
// recorded in the report and does not stop the others.
func (e *Extractor) ExtractFiles(ctx context.Context, paths []string) (*domain.StageReport, error) {
	report := domain.NewStageReport(domain.StageExtract)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc, err := e.Extract(ctx, path)
		if err != nil {
			logger.Error("Extract %s: %v", path, err)
			report.Fail(domain.DocumentIDFromPath(path), err)
			continue
		}
		if err := e.artifacts.SavePages(ctx, driven.StageExtracted, doc); err != nil {
			logger.Error("Save extracted %s: %v", doc.ID, err)
			report.Fail(doc.ID, err)
			continue
		}
		report.Documents++
		report.Pages += doc.PageCount()
		for _, p := range doc.Failed() {
			report.Fail(p.Key().String(), fmt.Errorf("%s", p.Error))
		}
	}
	return report, nil
}

// ExtractAll extracts every document matching the corpus pattern.
func (e *Extractor) ExtractAll(ctx context.Context) (*domain.StageReport, error) {
	paths, err := discoverDocuments(e.cfg.RawDir, e.cfg.Pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		logger.Warn("No documents matching %q in %s", e.cfg.Pattern, e.cfg.RawDir)
	}
	return e.ExtractFiles(ctx, paths)
}
