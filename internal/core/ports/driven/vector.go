package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// VectorStore holds named collections of embedded chunks.
//
// Implementations include sqlite (local), Qdrant, Redis (RediSearch) and memory.
type VectorStore interface {
	// Recreate drops the named collection if present and creates it empty.
	// Prior contents with the same name are discarded.
	Recreate(ctx context.Context, collection string, dimensions int) error

	// Upsert writes chunks with their embeddings and metadata.
	Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error

	// Query returns the k nearest chunks in descending relevance.
	Query(ctx context.Context, collection string, vector []float32, filter domain.VectorFilter, k int) ([]domain.RetrievedChunk, error)

	// Collections lists the collection names in the store.
	Collections(ctx context.Context) ([]string, error)

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
