// Package redis provides a vector store on Redis with RediSearch HNSW indexes.
//
// Each collection is one index named after it over hashes keyed
// "{collection}:{chunk id}".
package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const (
	// Default index configuration
	defaultEFConstruction = 200
	defaultM              = 16

	// Field names in Redis hash
	fieldContent  = "content"
	fieldVector   = "vector"
	fieldDocument = "document_id"
	fieldPages    = "pages"
	fieldPosition = "position"
	fieldFileID   = "file_id"
	fieldMetadata = "metadata"
	fieldScore    = "score"
)

// Store implements VectorStore with RediSearch vector search.
type Store struct {
	client *goredis.Client
}

// NewStore connects to the Redis server at url, e.g. "redis://localhost:6379/0".
func NewStore(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: redis URL is required", domain.ErrInvalidInput)
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis URL: %w", domain.ErrInvalidInput, err)
	}
	// Search replies are parsed in their RESP2 array form.
	opts.Protocol = 2

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to connect to Redis: %w", domain.ErrStoreUnavailable, err)
	}
	return &Store{client: client}, nil
}

func keyPrefix(collection string) string {
	return collection + ":"
}

// createArgs builds the FT.CREATE command for a collection.
func createArgs(collection string, dimensions int) []any {
	return []any{
		"FT.CREATE", collection,
		"ON", "HASH",
		"PREFIX", "1", keyPrefix(collection),
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dimensions),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFConstruction),
		"M", strconv.Itoa(defaultM),
		fieldContent, "TEXT",
		fieldDocument, "TAG",
		fieldFileID, "NUMERIC",
	}
}

// Recreate drops the index with its hashes and creates it empty.
func (s *Store) Recreate(ctx context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection %q with %d dimensions", domain.ErrInvalidInput, name, dimensions)
	}
	if err := s.client.Do(ctx, "FT.DROPINDEX", name, "DD").Err(); err != nil && !isUnknownIndex(err) {
		return classify("drop index "+name, err)
	}
	if err := s.client.Do(ctx, createArgs(name, dimensions)...).Err(); err != nil {
		return classify("create index "+name, err)
	}
	return nil
}

// Upsert writes every chunk as a hash in one pipeline.
func (s *Store) Upsert(ctx context.Context, name string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for i := range chunks {
		c := &chunks[i]
		pagesJSON, err := json.Marshal(c.Pages)
		if err != nil {
			return fmt.Errorf("marshal pages: %w", err)
		}
		metadataJSON, err := json.Marshal(domain.SanitizeMetadata(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		values := []any{
			fieldContent, c.Content,
			fieldVector, encodeVector(c.Embedding),
			fieldDocument, c.DocumentID,
			fieldPages, string(pagesJSON),
			fieldPosition, c.Position,
			fieldMetadata, string(metadataJSON),
		}
		if id, ok := c.Metadata.Int(domain.MetaFileID); ok {
			values = append(values, fieldFileID, id)
		}
		pipe.HSet(ctx, keyPrefix(name)+c.ID, values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return classify("upsert into "+name, err)
	}
	return nil
}

// searchArgs builds the KNN query, prefiltered by file when requested.
func searchArgs(collection string, vector []float32, filter domain.VectorFilter, k int) []any {
	base := "*"
	if filter.FileID != nil {
		base = fmt.Sprintf("@%s:[%d %d]", fieldFileID, *filter.FileID, *filter.FileID)
	}
	query := fmt.Sprintf("(%s)=>[KNN %d @%s $vec AS %s]", base, k, fieldVector, fieldScore)
	return []any{
		"FT.SEARCH", collection, query,
		"PARAMS", "2", "vec", encodeVector(vector),
		"RETURN", "7", fieldContent, fieldDocument, fieldPages, fieldPosition, fieldFileID, fieldMetadata, fieldScore,
		"SORTBY", fieldScore, "ASC",
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	}
}

// Query returns the k nearest chunks in descending similarity.
func (s *Store) Query(
	ctx context.Context,
	name string,
	vector []float32,
	filter domain.VectorFilter,
	k int,
) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		k = 4
	}
	res, err := s.client.Do(ctx, searchArgs(name, vector, filter, k)...).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
		}
		return nil, classify("search "+name, err)
	}
	return parseSearch(name, res)
}

// parseSearch reads a RESP2 FT.SEARCH reply: count, then key and field list pairs.
func parseSearch(collection string, res any) ([]domain.RetrievedChunk, error) {
	values, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("redis: unexpected search reply %T", res)
	}
	var hits []domain.RetrievedChunk
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]any)
		if !ok {
			continue
		}
		hit := domain.RetrievedChunk{Chunk: domain.Chunk{ID: strings.TrimPrefix(key, keyPrefix(collection))}}
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].(string)
			value, _ := fields[j+1].(string)
			applyField(&hit, name, value)
		}
		hits = append(hits, hit)
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits, nil
}

func applyField(hit *domain.RetrievedChunk, name, value string) {
	switch name {
	case fieldContent:
		hit.Chunk.Content = value
	case fieldDocument:
		hit.Chunk.DocumentID = value
	case fieldPages:
		_ = json.Unmarshal([]byte(value), &hit.Chunk.Pages)
	case fieldPosition:
		hit.Chunk.Position, _ = strconv.Atoi(value)
	case fieldMetadata:
		_ = json.Unmarshal([]byte(value), &hit.Chunk.Metadata)
	case fieldScore:
		// COSINE reports distance in [0, 2].
		if d, err := strconv.ParseFloat(value, 64); err == nil {
			hit.Score = 1 - d
		}
	}
}

// Collections lists the search indexes, sorted.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	res, err := s.client.Do(ctx, "FT._LIST").Result()
	if err != nil {
		return nil, classify("list indexes", err)
	}
	values, _ := res.([]any)
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Ping validates the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// encodeVector encodes a vector as little-endian FLOAT32 bytes, the layout
// RediSearch expects for vector fields and query parameters.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, f := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

// classify marks connection failures as ErrStoreUnavailable.
func classify(op string, err error) error {
	if goredis.HasErrorPrefix(err, "ERR") || goredis.HasErrorPrefix(err, "WRONGTYPE") {
		return fmt.Errorf("redis: %s: %w", op, err)
	}
	return fmt.Errorf("%w: redis: %s: %w", domain.ErrStoreUnavailable, op, err)
}
