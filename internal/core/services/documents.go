package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure DocumentBrowser implements the interface.
var _ driving.DocumentService = (*DocumentBrowser)(nil)

// DocumentBrowser reads fused pages back for display.
type DocumentBrowser struct {
	artifacts driven.ArtifactStore
}

// NewDocumentBrowser creates a document browser.
func NewDocumentBrowser(artifacts driven.ArtifactStore) *DocumentBrowser {
	return &DocumentBrowser{artifacts: artifacts}
}

// Pages returns the fused pages of a document in page order.
func (d *DocumentBrowser) Pages(ctx context.Context, documentID string) ([]domain.Unit, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	units, err := d.artifacts.LoadUnits(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return units, nil
}

// List returns the documents with fused output.
func (d *DocumentBrowser) List(ctx context.Context) ([]string, error) {
	return d.artifacts.Documents(ctx, driven.StageUnified)
}
