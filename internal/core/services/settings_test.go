package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	service.getenv = func(k string) string { return env[k] }
	return service, store
}

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettings(nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, defaults.Fusion, settings.Fusion)
	assert.Equal(t, defaults.Retry, settings.Retry)
	assert.Equal(t, defaults.Collections.Plan.ChunkSizes, settings.Collections.Plan.ChunkSizes)
	assert.Equal(t, filepath.Join("data", "raw"), settings.Paths.Raw)
	assert.Equal(t, filepath.Join("data", "vectors.db"), settings.VectorStore.Path)
	assert.Empty(t, settings.LLM.APIKey)
}

func TestSettingsService_Get_DefaultCollection(t *testing.T) {
	service, store := newTestSettings(nil)

	settings, err := service.Get()
	require.NoError(t, err)
	configs := settings.Collections.Plan.Configs()
	require.NotEmpty(t, configs)
	assert.Equal(t, configs[0].Name, settings.Retrieval.Collection)

	_ = store.Set("retrieval.collection", "manuals_custom")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "manuals_custom", settings.Retrieval.Collection)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettings(nil)
	_ = store.Set("paths.data_dir", "/srv/manuals")
	_ = store.Set("paths.raw", "/mnt/pdfs")
	_ = store.Set("llm.provider", "gemini")
	_ = store.Set("llm.model", "gemini-2.0-flash")
	_ = store.Set("fusion.temperature", 0)
	_ = store.Set("throttle.vision_interval", "250ms")
	_ = store.Set("retry.call_timeout", 10)
	_ = store.Set("collections.embedding_models", []any{"org/modelA", "modelB"})
	_ = store.Set("collections.chunk_sizes", []any{"page", int64(500)})
	_ = store.Set("collections.chunk_overlaps", []any{int64(0), int64(50)})
	_ = store.Set("retrieval.top_k", 6)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, "/mnt/pdfs", settings.Paths.Raw)
	assert.Equal(t, filepath.Join("/srv/manuals", "unified"), settings.Paths.Unified)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", settings.LLM.Model)
	assert.Zero(t, settings.Fusion.Temperature)
	assert.Equal(t, 1000, settings.Fusion.MaxTokens)
	assert.Equal(t, 250*time.Millisecond, settings.Throttle.VisionInterval)
	assert.Equal(t, 10*time.Second, settings.Retry.CallTimeout)
	assert.Equal(t, []string{"org/modelA", "modelB"}, settings.Collections.Plan.EmbeddingModels)
	assert.Equal(t, []domain.ChunkSize{domain.ChunkByPage, domain.FixedChunkSize(500)}, settings.Collections.Plan.ChunkSizes)
	assert.Equal(t, []int{0, 50}, settings.Collections.Plan.ChunkOverlaps)
	assert.Equal(t, 6, settings.Retrieval.TopK)
}

func TestSettingsService_Get_BadChunkSize(t *testing.T) {
	service, store := newTestSettings(nil)
	_ = store.Set("collections.chunk_sizes", []any{"huge"})

	_, err := service.Get()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_Environment(t *testing.T) {
	service, store := newTestSettings(map[string]string{
		EnvOpenAIKey:    "sk-openai",
		EnvGeminiKey:    "gm-key",
		EnvQdrantURL:    "http://qdrant:6333",
		EnvQdrantAPIKey: "qd-key",
	})
	_ = store.Set("vision.provider", "gemini")
	_ = store.Set("vector_store.backend", "qdrant")

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", settings.LLM.APIKey)
	assert.Equal(t, "gm-key", settings.Vision.APIKey)
	assert.Equal(t, "sk-openai", settings.Embedding.APIKey)
	assert.Equal(t, "http://qdrant:6333", settings.VectorStore.URL)
	assert.Equal(t, "qd-key", settings.VectorStore.APIKey)
}

func TestSettingsService_Save(t *testing.T) {
	service, store := newTestSettings(nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.Model = "gpt-4o"
	settings.LLM.APIKey = "sk-secret"
	settings.Collections.Plan.ChunkSizes = []domain.ChunkSize{domain.ChunkByPage, domain.FixedChunkSize(800)}
	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "gpt-4o", store.GetString("llm.model"))
	assert.Equal(t, []any{"page", 800}, store.GetSlice("collections.chunk_sizes"))
	_, hasKey := store.Get("llm.api_key")
	assert.False(t, hasKey)

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Collections.Plan.ChunkSizes, loaded.Collections.Plan.ChunkSizes)
}

func TestSettingsService_Validate(t *testing.T) {
	service, _ := newTestSettings(nil)
	defaults := service.GetDefaults()
	assert.NoError(t, service.Validate(&defaults))

	tests := []struct {
		name   string
		mutate func(s *domain.AppSettings)
	}{
		{"ollama cannot generate", func(s *domain.AppSettings) { s.LLM.Provider = domain.AIProviderOllama }},
		{"gemini cannot embed", func(s *domain.AppSettings) { s.Embedding.Provider = domain.AIProviderGemini }},
		{"unknown backend", func(s *domain.AppSettings) { s.VectorStore.Backend = "faiss" }},
		{"zero dpi", func(s *domain.AppSettings) { s.Extraction.RenderDPI = 0 }},
		{"no vision concurrency", func(s *domain.AppSettings) { s.Throttle.VisionConcurrency = 0 }},
		{"no retries", func(s *domain.AppSettings) { s.Retry.MaxAttempts = 0 }},
		{"overlap too large", func(s *domain.AppSettings) {
			s.Collections.Plan.ChunkSizes = []domain.ChunkSize{domain.FixedChunkSize(100)}
			s.Collections.Plan.ChunkOverlaps = []int{100}
		}},
		{"no prefix", func(s *domain.AppSettings) { s.Collections.Plan.Prefix = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, service.Validate(&s), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Require(t *testing.T) {
	service, _ := newTestSettings(map[string]string{EnvOpenAIKey: "sk"})

	settings, err := service.Get()
	require.NoError(t, err)
	assert.NoError(t, service.Require(settings, domain.NeedLLM|domain.NeedVision|domain.NeedEmbedding))

	settings.Vision.Provider = domain.AIProviderGemini
	settings.Vision.APIKey = ""
	err = service.Require(settings, domain.NeedVision)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), EnvGeminiKey)
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	service, store := newTestSettings(nil)

	cfg := service.GetPipelineConfig()
	assert.Equal(t, []string{"chunker", "metadata"}, cfg.Processors)

	_ = store.Set("pipeline.processors", []any{"chunker"})
	_ = store.Set("pipeline.chunker.namespace", "custom")
	cfg = service.GetPipelineConfig()
	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	assert.Equal(t, "custom", cfg.ProcessorConfigs["chunker"]["namespace"])
}
