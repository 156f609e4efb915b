// Package metadata filters chunk metadata down to index-safe values.
package metadata

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Processor applies the metadata allow-list to every chunk.
type Processor struct{}

// New creates a metadata processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "metadata"
}

// Process replaces each chunk's metadata with its sanitized form.
func (p *Processor) Process(_ context.Context, _ *domain.Unit, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		chunks[i].Metadata = domain.SanitizeMetadata(chunks[i].Metadata)
	}
	return chunks, nil
}
