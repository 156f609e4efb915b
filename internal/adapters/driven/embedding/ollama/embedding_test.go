package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func newOllamaServer(t *testing.T, dims int) (*httptest.Server, *[]embedRequest) {
	t.Helper()
	var requests []embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			requests = append(requests, req)
			resp := embedResponse{}
			for i := range req.Input {
				vec := make([]float64, dims)
				vec[0] = float64(i)
				resp.Embeddings = append(resp.Embeddings, vec)
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	server, requests := newOllamaServer(t, 8)
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Model: "bge-m3"})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"freio", "pastilha"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(1), vecs[1][0])
	assert.Equal(t, 8, svc.Dimensions())

	require.Len(t, *requests, 1)
	assert.Equal(t, "bge-m3", (*requests)[0].Model)
	assert.Equal(t, []string{"freio", "pastilha"}, (*requests)[0].Input)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"x\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	_, err := NewEmbeddingService(Config{BaseURL: server.URL, Model: "x"}).Embed(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServicePermanent)
	assert.Contains(t, err.Error(), "not found")
}

func TestEmbed_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewEmbeddingService(Config{BaseURL: server.URL}).Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrServiceTransient)
}

func TestPing(t *testing.T) {
	server, _ := newOllamaServer(t, 4)
	assert.NoError(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))
}
