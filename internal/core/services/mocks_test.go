package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// mockPDF serves fixed per-page text. Pages listed in fail return an error,
// pages listed in panics panic.
type mockPDF struct {
	pages     map[string][]string
	countErr  error
	fail      map[int]bool
	panics    map[int]bool
	renderErr error

	mu       sync.Mutex
	rendered []string
}

func (m *mockPDF) PageCount(_ context.Context, path string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	pages, ok := m.pages[path]
	if !ok {
		return 0, errors.New("cannot open")
	}
	return len(pages), nil
}

func (m *mockPDF) ExtractText(_ context.Context, path string, page int) (string, error) {
	if m.panics[page] {
		panic("corrupt page object")
	}
	if m.fail[page] {
		return "", errors.New("bad page")
	}
	return m.pages[path][page-1], nil
}

func (m *mockPDF) RenderPage(_ context.Context, path string, page int, out string) error {
	if m.renderErr != nil {
		return m.renderErr
	}
	m.mu.Lock()
	m.rendered = append(m.rendered, fmt.Sprintf("%s#%d", path, page))
	m.mu.Unlock()
	return os.WriteFile(out, []byte(fmt.Sprintf("image of page %d", page)), 0o644)
}

type mockOCR struct {
	text  string
	err   error
	calls int
}

func (m *mockOCR) Recognise(_ context.Context, imagePath string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", err
	}
	return m.text, nil
}

// mockLLM returns canned responses. respond, when set, picks a response by prompt.
type mockLLM struct {
	response string
	respond  func(prompt string) (string, error)
	errs     []error

	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	var err error
	if len(m.errs) > 0 {
		err, m.errs = m.errs[0], m.errs[1:]
	}
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if m.respond != nil {
		return m.respond(prompt)
	}
	return m.response, nil
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

type mockVision struct {
	response string
	err      error
	errs     []error // returned in order before err and response
	failFor  string

	mu     sync.Mutex
	images []string
	opts   []driven.GenerateOptions
}

func (m *mockVision) DescribeImage(_ context.Context, _ string, imageURI string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, imageURI)
	m.opts = append(m.opts, opts)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	if m.failFor != "" && strings.Contains(imageURI, m.failFor) {
		return "", errors.New("vision refused")
	}
	return m.response, nil
}

func (m *mockVision) ModelName() string { return "mock-vision" }

func (m *mockVision) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// mockEmbedding maps text to a vector via vec, or a length-based default.
type mockEmbedding struct {
	model string
	dims  int
	vec   func(text string) []float32
	err   error

	mu      sync.Mutex
	batches [][]string
}

func (m *mockEmbedding) vector(text string) []float32 {
	if m.vec != nil {
		return m.vec(text)
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(len(text)%7 + i + 1)
	}
	return v
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int            { return m.dims }
func (m *mockEmbedding) ModelName() string          { return m.model }
func (m *mockEmbedding) Ping(context.Context) error { return nil }
func (m *mockEmbedding) Close() error               { return nil }

type mockEmbeddingProvider struct {
	services map[string]*mockEmbedding
	err      error
}

func (m *mockEmbeddingProvider) ForModel(_ context.Context, model string) (driven.EmbeddingService, error) {
	if m.err != nil {
		return nil, m.err
	}
	svc, ok := m.services[model]
	if !ok {
		return nil, fmt.Errorf("model %s: %w", model, domain.ErrEmbeddingUnavailable)
	}
	return svc, nil
}

type mockMetadata struct {
	table map[int]map[string]any
	err   error
}

func (m *mockMetadata) Load(context.Context) (map[int]map[string]any, error) {
	return m.table, m.err
}

type mockHarness struct {
	scores *domain.EvaluationScores
	err    error
	got    []domain.EvaluationRecord
}

func (m *mockHarness) Score(_ context.Context, record domain.EvaluationRecord) (*domain.EvaluationScores, error) {
	m.got = append(m.got, record)
	return m.scores, m.err
}

type mockThrottle struct {
	mu       sync.Mutex
	waits    int
	backoffs int
	err      error
}

func (m *mockThrottle) Wait(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits++
	return m.err
}

func (m *mockThrottle) Backoff(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backoffs++
}

// failingStore wraps a vector store and fails selected operations.
type failingStore struct {
	driven.VectorStore
	recreateErr map[string]error
	upsertErr   error
	queryErr    error
}

func (f *failingStore) Recreate(ctx context.Context, name string, dims int) error {
	if err, ok := f.recreateErr[name]; ok {
		return err
	}
	return f.VectorStore.Recreate(ctx, name, dims)
}

func (f *failingStore) Upsert(ctx context.Context, name string, chunks []domain.Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorStore.Upsert(ctx, name, chunks)
}

func (f *failingStore) Query(
	ctx context.Context, name string, vec []float32, filter domain.VectorFilter, k int,
) ([]domain.RetrievedChunk, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorStore.Query(ctx, name, vec, filter, k)
}

// fixedPrompts serves simple templates so tests can assert on substitutions.
type fixedPrompts map[string]string

func (p fixedPrompts) Load(name string) (string, error) {
	if s, ok := p[name]; ok {
		return s, nil
	}
	return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
}

func (p fixedPrompts) Reload() {}
