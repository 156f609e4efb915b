// Package chunker splits fused pages into chunks for embedding.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Processor splits unit text into chunks.
// With the by-page size every unit becomes exactly one chunk; otherwise the
// text is cut into rune windows of the configured size and overlap.
// It implements the PostProcessor interface.
type Processor struct {
	size      domain.ChunkSize
	overlap   int
	namespace string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size.
func WithChunkSize(size domain.ChunkSize) Option {
	return func(p *Processor) {
		p.size = size
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithNamespace scopes chunk IDs, typically to the collection name.
func WithNamespace(ns string) Option {
	return func(p *Processor) {
		p.namespace = ns
	}
}

// New creates a chunker. The default is one chunk per unit.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{size: domain.ChunkByPage}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.size.Validate(); err != nil {
		return nil, err
	}
	if !p.size.ByPage() && p.overlap >= p.size.Size() {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, p.overlap, p.size.Size())
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process creates chunks from the unit text. Input chunks are ignored.
// Blank units produce no chunks.
func (p *Processor) Process(_ context.Context, unit *domain.Unit, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(unit.Text) == "" {
		return nil, nil
	}

	var windows []string
	if p.size.ByPage() {
		windows = []string{unit.Text}
	} else {
		windows = split([]rune(unit.Text), p.size.Size(), p.overlap)
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for i, content := range windows {
		chunks = append(chunks, domain.Chunk{
			ID:         p.chunkID(unit, i),
			DocumentID: unit.DocumentID,
			Pages:      []int{unit.Page},
			Content:    content,
			Position:   i,
			Metadata:   unit.Metadata.Clone(),
		})
	}
	return chunks, nil
}

// chunkID is stable across runs so re-indexing overwrites.
func (p *Processor) chunkID(unit *domain.Unit, position int) string {
	name := fmt.Sprintf("%s/%s/%d/%d", p.namespace, unit.DocumentID, unit.Page, position)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// split cuts text into windows of size runes, each starting size-overlap
// after the previous. The last window always ends at the end of the text.
func split(text []rune, size, overlap int) []string {
	step := size - overlap
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			out = append(out, string(text[start:]))
			break
		}
		out = append(out, string(text[start:end]))
	}
	return out
}
