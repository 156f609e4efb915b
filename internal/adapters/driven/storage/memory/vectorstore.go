package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type collection struct {
	dims   int
	chunks map[string]domain.Chunk
}

// VectorStore is a brute-force in-memory vector store.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorStore creates an empty store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*collection)}
}

// Recreate replaces the named collection with an empty one.
func (s *VectorStore) Recreate(_ context.Context, name string, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = &collection{dims: dimensions, chunks: make(map[string]domain.Chunk)}
	return nil
}

// Upsert stores chunks by ID.
func (s *VectorStore) Upsert(_ context.Context, name string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	for i := range chunks {
		if c.dims > 0 && len(chunks[i].Embedding) != c.dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection expects %d",
				domain.ErrInvalidInput, chunks[i].ID, len(chunks[i].Embedding), c.dims)
		}
		c.chunks[chunks[i].ID] = chunks[i]
	}
	return nil
}

// Query scores every matching chunk and returns the best k.
func (s *VectorStore) Query(
	_ context.Context,
	name string,
	vector []float32,
	filter domain.VectorFilter,
	k int,
) ([]domain.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if c.dims > 0 && len(vector) != c.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			domain.ErrInvalidInput, len(vector), name, c.dims)
	}
	var hits []domain.RetrievedChunk
	for _, chunk := range c.chunks {
		if !filter.Matches(chunk.Metadata) {
			continue
		}
		hits = append(hits, domain.RetrievedChunk{
			Chunk: chunk,
			Score: domain.CosineSimilarity(vector, chunk.Embedding),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Collections lists collection names, sorted.
func (s *VectorStore) Collections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of chunks in a collection.
func (s *VectorStore) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.chunks)
	}
	return 0
}

// Chunks returns the stored chunks of a collection ordered by ID.
func (s *VectorStore) Chunks(name string) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	out := make([]domain.Chunk, 0, len(c.chunks))
	for _, ch := range c.chunks {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Ping always succeeds.
func (s *VectorStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *VectorStore) Close() error { return nil }
