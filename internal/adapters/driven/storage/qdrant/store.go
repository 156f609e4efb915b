// Package qdrant provides a vector store over the Qdrant REST API.
//
// Points carry the chunk text under "page_content" and its metadata under
// "metadata", so file filters address "metadata.file_id".
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultTimeout bounds each REST call.
const DefaultTimeout = 15 * time.Second

// Payload keys.
const (
	payloadContent  = "page_content"
	payloadMetadata = "metadata"
	payloadDocument = "document_id"
	payloadPages    = "pages"
	payloadPosition = "position"
)

// Config holds the Qdrant endpoint.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Store is a REST client to Qdrant. Collections use cosine distance.
type Store struct {
	url    string
	apiKey string
	client *http.Client
}

// NewStore creates a client. No request is made until first use.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant URL is required", domain.ErrInvalidInput)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (s *Store) collectionURL(name string, parts ...string) string {
	u := s.url + "/collections/" + url.PathEscape(name)
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// Recreate deletes the collection if present and creates it empty.
func (s *Store) Recreate(ctx context.Context, name string, dimensions int) error {
	if name == "" || dimensions <= 0 {
		return fmt.Errorf("%w: collection %q with %d dimensions", domain.ErrInvalidInput, name, dimensions)
	}
	err := s.do(ctx, http.MethodDelete, s.collectionURL(name), nil, nil)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionURL(name), body, nil); err != nil {
		return err
	}
	// Indexed payload field for the file filter.
	index := map[string]any{"field_name": payloadMetadata + "." + domain.MetaFileID, "field_schema": "integer"}
	return s.do(ctx, http.MethodPut, s.collectionURL(name, "index")+"?wait=true", index, nil)
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes all chunks as one batch of points.
func (s *Store) Upsert(ctx context.Context, name string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]point, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		points[i] = point{
			ID:     c.ID,
			Vector: c.Embedding,
			Payload: map[string]any{
				payloadContent:  c.Content,
				payloadMetadata: map[string]any(domain.SanitizeMetadata(c.Metadata)),
				payloadDocument: c.DocumentID,
				payloadPages:    c.Pages,
				payloadPosition: c.Position,
			},
		}
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(name, "points")+"?wait=true",
		map[string]any{"points": points}, nil)
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
		Vector  []float32      `json:"vector"`
	} `json:"result"`
}

// Query returns the k nearest points, optionally restricted to one file.
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
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if filter.FileID != nil {
		req["filter"] = map[string]any{
			"must": []any{
				map[string]any{
					"key":   payloadMetadata + "." + domain.MetaFileID,
					"match": map[string]any{"value": *filter.FileID},
				},
			},
		}
	}

	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, s.collectionURL(name, "points", "search"), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.RetrievedChunk{Chunk: chunkFromPayload(r.ID, r.Payload), Score: r.Score})
	}
	return hits, nil
}

func chunkFromPayload(id any, payload map[string]any) domain.Chunk {
	c := domain.Chunk{ID: fmt.Sprint(id)}
	c.Content, _ = payload[payloadContent].(string)
	c.DocumentID, _ = payload[payloadDocument].(string)
	if md, ok := payload[payloadMetadata].(map[string]any); ok {
		c.Metadata = domain.Metadata(md)
	}
	if pos, ok := payload[payloadPosition].(float64); ok {
		c.Position = int(pos)
	}
	if pages, ok := payload[payloadPages].([]any); ok {
		for _, p := range pages {
			if n, ok := p.(float64); ok {
				c.Pages = append(c.Pages, int(n))
			}
		}
	}
	if c.DocumentID == "" && c.Metadata != nil {
		c.DocumentID = c.Metadata.String(domain.MetaDocument)
	}
	return c
}

// Collections lists collection names, sorted.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.url+"/collections", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Result.Collections))
	for _, c := range resp.Result.Collections {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Ping lists collections, which also validates the API key.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.Collections(ctx)
	return err
}

// Close releases resources.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
// Transport failures are ErrStoreUnavailable; 404 is ErrNotFound.
func (s *Store) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("qdrant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %w", domain.ErrStoreUnavailable, method, u, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("qdrant %s %s: %w", method, u, domain.ErrNotFound)
	case resp.StatusCode >= 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: qdrant %s %s failed: %s: %s",
			domain.ErrStoreUnavailable, method, u, resp.Status, strings.TrimSpace(string(msg)))
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, u, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}
