package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Recreate drops the named collection with its chunks and creates it empty.
func (s *Store) Recreate(ctx context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection %q with %d dimensions", domain.ErrInvalidInput, name, dimensions)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", name); err != nil {
		return fmt.Errorf("clearing collection %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("dropping collection %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO collections (name, dimensions) VALUES (?, ?)", name, dimensions); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return tx.Commit()
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) dimensions(ctx context.Context, q rowQuerier, name string) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", name).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection %s: %w", name, err)
	}
	return dims, nil
}

// Upsert writes chunks in one transaction, replacing chunks with the same ID.
func (s *Store) Upsert(ctx context.Context, name string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	dims, err := s.dimensions(ctx, tx, name)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, document_id, pages, position, content, file_id, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document_id = excluded.document_id,
			pages = excluded.pages,
			position = excluded.position,
			content = excluded.content,
			file_id = excluded.file_id,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunk := &chunks[i]
		if len(chunk.Embedding) != dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection expects %d",
				domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), dims)
		}
		pagesJSON, err := json.Marshal(chunk.Pages)
		if err != nil {
			return fmt.Errorf("marshalling pages: %w", err)
		}
		metadataJSON, err := json.Marshal(domain.SanitizeMetadata(chunk.Metadata))
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		var fileID sql.NullInt64
		if id, ok := chunk.Metadata.Int(domain.MetaFileID); ok {
			fileID = sql.NullInt64{Int64: int64(id), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, name, chunk.ID, chunk.DocumentID, string(pagesJSON),
			chunk.Position, chunk.Content, fileID, float32SliceToBytes(chunk.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// Query ranks the collection's chunks by cosine similarity and returns the best k.
func (s *Store) Query(
	ctx context.Context,
	name string,
	vector []float32,
	filter domain.VectorFilter,
	k int,
) ([]domain.RetrievedChunk, error) {
	dims, err := s.dimensions(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			domain.ErrInvalidInput, len(vector), name, dims)
	}

	query := `SELECT id, document_id, pages, position, content, embedding, metadata
		FROM chunks WHERE collection = ?`
	args := []any{name}
	if filter.FileID != nil {
		query += " AND file_id = ?"
		args = append(args, *filter.FileID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, domain.RetrievedChunk{
			Chunk: *chunk,
			Score: domain.CosineSimilarity(vector, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
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
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of chunks in a collection.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE collection = ?", name).Scan(&n)
	return n, err
}

// Ping validates the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// scanChunk scans a chunk row.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var (
		chunk        domain.Chunk
		pagesJSON    string
		embedding    []byte
		metadataJSON string
	)
	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &pagesJSON, &chunk.Position,
		&chunk.Content, &embedding, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	if err := json.Unmarshal([]byte(pagesJSON), &chunk.Pages); err != nil {
		return nil, fmt.Errorf("unmarshalling pages of %s: %w", chunk.ID, err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata of %s: %w", chunk.ID, err)
	}
	chunk.Embedding = bytesToFloat32Slice(embedding)
	return &chunk, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
