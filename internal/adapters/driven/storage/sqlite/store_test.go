package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

const testCollection = "manuals_chunkby-page_overlap0_modelB"

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func chunk(id string, fileID int, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: "doc_" + id,
		Pages:      []int{1},
		Content:    "content " + id,
		Embedding:  vec,
		Metadata: domain.Metadata{
			domain.MetaFileID: fileID,
			domain.MetaSource: "doc_pag1_resultado.json",
			"fabricante":      "Bosch",
		},
	}
}

func TestNewStore_DirectoryPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DefaultFileName), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"collections", "chunks"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Recreate(context.Background(), "c", 2))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	names, err := second.Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names)
}

func TestRecreate_DiscardsContents(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Recreate(ctx, testCollection, 2))
	require.NoError(t, store.Upsert(ctx, testCollection, []domain.Chunk{chunk("a", 12, 1, 0)}))
	n, err := store.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Recreate(ctx, testCollection, 3))
	n, err = store.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = store.Upsert(ctx, testCollection, []domain.Chunk{chunk("a", 12, 1, 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecreate_InvalidInput(t *testing.T) {
	store := setupTestStore(t)
	assert.ErrorIs(t, store.Recreate(context.Background(), "", 3), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Recreate(context.Background(), "c", 0), domain.ErrInvalidInput)
}

func TestUpsert_ReplacesByID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Recreate(ctx, testCollection, 2))

	first := chunk("a", 12, 1, 0)
	require.NoError(t, store.Upsert(ctx, testCollection, []domain.Chunk{first}))
	second := chunk("a", 12, 0, 1)
	second.Content = "replaced"
	require.NoError(t, store.Upsert(ctx, testCollection, []domain.Chunk{second}))

	n, err := store.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := store.Query(ctx, testCollection, []float32{0, 1}, domain.VectorFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "replaced", hits[0].Chunk.Content)
}

func TestUpsert_UnknownCollection(t *testing.T) {
	store := setupTestStore(t)
	err := store.Upsert(context.Background(), "missing", []domain.Chunk{chunk("a", 1, 1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_RanksAndFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Recreate(ctx, testCollection, 2))
	require.NoError(t, store.Upsert(ctx, testCollection, []domain.Chunk{
		chunk("c1", 12, 1, 0),
		chunk("c2", 12, 0.6, 0.8),
		chunk("c3", 7, 0.9, 0.1),
	}))

	hits, err := store.Query(ctx, testCollection, []float32{1, 0}, domain.VectorFilter{}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "c3", hits[1].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)

	fileID := 12
	hits, err = store.Query(ctx, testCollection, []float32{1, 0}, domain.VectorFilter{FileID: &fileID}, 4)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"c1", "c2"}, []string{hits[0].Chunk.ID, hits[1].Chunk.ID})
}

func TestQuery_RoundTripsChunkFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Recreate(ctx, testCollection, 2))

	c := chunk("c1", 12, 0.25, -0.5)
	c.Pages = []int{3, 4}
	c.Position = 2
	c.Metadata["bad"] = make(chan int)
	require.NoError(t, store.Upsert(ctx, testCollection, []domain.Chunk{c}))

	hits, err := store.Query(ctx, testCollection, []float32{1, 1}, domain.VectorFilter{}, 1)
	require.NoError(t, err)
	got := hits[0].Chunk
	assert.Equal(t, "doc_c1", got.DocumentID)
	assert.Equal(t, []int{3, 4}, got.Pages)
	assert.Equal(t, 2, got.Position)
	assert.Equal(t, []float32{0.25, -0.5}, got.Embedding)
	assert.Equal(t, "Bosch", got.Metadata.String("fabricante"))
	id, ok := got.Metadata.Int(domain.MetaFileID)
	assert.True(t, ok)
	assert.Equal(t, 12, id)
	assert.NotContains(t, got.Metadata, "bad")
}

func TestQuery_UnknownCollection(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Query(context.Background(), "missing", []float32{1}, domain.VectorFilter{}, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_DimensionMismatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Recreate(ctx, testCollection, 2))
	require.NoError(t, store.Upsert(ctx, testCollection, []domain.Chunk{chunk("c1", 12, 1, 0)}))

	hits, err := store.Query(ctx, testCollection, []float32{1, 0, 0}, domain.VectorFilter{}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, hits)
}

func TestCollections(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Recreate(ctx, "b_coll", 2))
	require.NoError(t, store.Recreate(ctx, "a_coll", 2))
	names, err = store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_coll", "b_coll"}, names)
}

func TestPing(t *testing.T) {
	assert.NoError(t, setupTestStore(t).Ping(context.Background()))
}

func TestFloat32Bytes(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
