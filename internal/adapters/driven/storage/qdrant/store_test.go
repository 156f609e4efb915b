package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// fakeQdrant records requests and serves canned responses.
type fakeQdrant struct {
	mu          sync.Mutex
	requests    []string
	bodies      map[string]map[string]any
	collections []string
	apiKey      string
	search      string
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{bodies: make(map[string]map[string]any)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		key := r.Method + " " + r.URL.Path
		f.requests = append(f.requests, key)
		f.apiKey = r.Header.Get("api-key")
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.bodies[key] = body

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections":
			var cols []map[string]string
			for _, c := range f.collections {
				cols = append(cols, map[string]string{"name": c})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"collections": cols}})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/points/search"):
			_, _ = w.Write([]byte(f.search))
		default:
			_, _ = w.Write([]byte(`{"result":true,"status":"ok"}`))
		}
	}))
	t.Cleanup(server.Close)
	return f, server
}

func TestNewStore_RequiresURL(t *testing.T) {
	_, err := NewStore(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecreate(t *testing.T) {
	fake, server := newFakeQdrant(t)
	store, err := NewStore(Config{URL: server.URL + "/", APIKey: "secret"})
	require.NoError(t, err)

	require.NoError(t, store.Recreate(context.Background(), "manuals_chunk500_overlap50_bge-m3", 1024))

	assert.Equal(t, []string{
		"DELETE /collections/manuals_chunk500_overlap50_bge-m3",
		"PUT /collections/manuals_chunk500_overlap50_bge-m3",
		"PUT /collections/manuals_chunk500_overlap50_bge-m3/index",
	}, fake.requests)
	assert.Equal(t, "secret", fake.apiKey)

	vectors := fake.bodies["PUT /collections/manuals_chunk500_overlap50_bge-m3"]["vectors"].(map[string]any)
	assert.Equal(t, float64(1024), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
	index := fake.bodies["PUT /collections/manuals_chunk500_overlap50_bge-m3/index"]
	assert.Equal(t, "metadata.file_id", index["field_name"])
}

func TestUpsert_Payload(t *testing.T) {
	fake, server := newFakeQdrant(t)
	store, err := NewStore(Config{URL: server.URL})
	require.NoError(t, err)

	err = store.Upsert(context.Background(), "c", []domain.Chunk{{
		ID:         "6f1c8a3e-7d0b-5b8e-9c55-0a0b1c2d3e4f",
		DocumentID: "fluidos_12",
		Pages:      []int{2},
		Content:    "torque 45 Nm",
		Embedding:  []float32{0.1, 0.2},
		Metadata:   domain.Metadata{domain.MetaFileID: 12, "bad": func() {}},
	}})
	require.NoError(t, err)

	body := fake.bodies["PUT /collections/c/points"]
	points := body["points"].([]any)
	require.Len(t, points, 1)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "torque 45 Nm", payload["page_content"])
	md := payload["metadata"].(map[string]any)
	assert.Equal(t, float64(12), md["file_id"])
	assert.NotContains(t, md, "bad")
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	fake, server := newFakeQdrant(t)
	store, err := NewStore(Config{URL: server.URL})
	require.NoError(t, err)

	require.NoError(t, store.Upsert(context.Background(), "c", nil))
	assert.Empty(t, fake.requests)
}

func TestQuery(t *testing.T) {
	fake, server := newFakeQdrant(t)
	fake.search = `{"result":[
		{"id":"a","score":0.93,"payload":{"page_content":"torque 45 Nm","document_id":"fluidos_12",
		 "pages":[2],"position":0,"metadata":{"file_id":12,"page":2}}},
		{"id":"b","score":0.51,"payload":{"page_content":"pastilhas","metadata":{"file_id":7,"document":"freios_7"}}}
	]}`
	store, err := NewStore(Config{URL: server.URL})
	require.NoError(t, err)

	fileID := 12
	hits, err := store.Query(context.Background(), "c", []float32{1, 0}, domain.VectorFilter{FileID: &fileID}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "torque 45 Nm", hits[0].Chunk.Content)
	assert.Equal(t, []int{2}, hits[0].Chunk.Pages)
	assert.InDelta(t, 0.93, hits[0].Score, 1e-9)
	assert.Equal(t, "freios_7", hits[1].Chunk.DocumentID)

	req := fake.bodies["POST /collections/c/points/search"]
	assert.Equal(t, float64(4), req["limit"])
	must := req["filter"].(map[string]any)["must"].([]any)
	cond := must[0].(map[string]any)
	assert.Equal(t, "metadata.file_id", cond["key"])
	assert.Equal(t, float64(12), cond["match"].(map[string]any)["value"])
}

func TestQuery_NoFilter(t *testing.T) {
	fake, server := newFakeQdrant(t)
	fake.search = `{"result":[]}`
	store, err := NewStore(Config{URL: server.URL})
	require.NoError(t, err)

	hits, err := store.Query(context.Background(), "c", []float32{1}, domain.VectorFilter{}, 2)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotContains(t, fake.bodies["POST /collections/c/points/search"], "filter")
}

func TestCollections(t *testing.T) {
	fake, server := newFakeQdrant(t)
	fake.collections = []string{"b", "a"}
	store, err := NewStore(Config{URL: server.URL})
	require.NoError(t, err)

	names, err := store.Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	store, err := NewStore(Config{URL: url})
	require.NoError(t, err)
	assert.ErrorIs(t, store.Recreate(context.Background(), "c", 3), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Ping(context.Background()), domain.ErrStoreUnavailable)
}

func TestClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"error":"Wrong input: vector dimension error"}}`))
	}))
	defer server.Close()

	store, err := NewStore(Config{URL: server.URL})
	require.NoError(t, err)
	err = store.Upsert(context.Background(), "c", []domain.Chunk{{ID: "x", Embedding: []float32{1}}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "dimension error")
}
