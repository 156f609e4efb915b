package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir      = "paths.data_dir"
	keyRawDir       = "paths.raw"
	keyExtractedDir = "paths.extracted"
	keyCleanedDir   = "paths.cleaned"
	keyImagesDir    = "paths.images"
	keyVisionDir    = "paths.vision"
	keyUnifiedDir   = "paths.unified"
	keyLogsDir      = "paths.logs"
	keyMetadataFile = "paths.metadata_file"

	keyLLMProvider  = "llm.provider"
	keyLLMModel     = "llm.model"
	keyLLMBaseURL   = "llm.base_url"
	keyLLMMaxTokens = "llm.max_tokens"

	keyVisionProvider  = "vision.provider"
	keyVisionModel     = "vision.model"
	keyVisionBaseURL   = "vision.base_url"
	keyVisionMaxTokens = "vision.max_tokens"

	keyEmbedProvider = "embedding.provider"
	keyEmbedBaseURL  = "embedding.base_url"

	keyVectorBackend = "vector_store.backend"
	keyVectorPath    = "vector_store.path"
	keyVectorURL     = "vector_store.url"

	keyPattern     = "extraction.pattern"
	keyOCRLanguage = "extraction.ocr_language"
	keyRenderDPI   = "extraction.render_dpi"
	keyBoilerplate = "extraction.boilerplate_patterns"

	keyFusionTemperature = "fusion.temperature"
	keyFusionMaxTokens   = "fusion.max_tokens"
	keyFusionTopP        = "fusion.top_p"

	keyVisionInterval    = "throttle.vision_interval"
	keyVisionConcurrency = "throttle.vision_concurrency"

	keyRetryAttempts    = "retry.max_attempts"
	keyRetryBaseDelay   = "retry.base_delay"
	keyRetryMaxDelay    = "retry.max_delay"
	keyRetryCallTimeout = "retry.call_timeout"

	keyCollectionPrefix = "collections.prefix"
	keyEmbeddingModels  = "collections.embedding_models"
	keyChunkSizes       = "collections.chunk_sizes"
	keyChunkOverlaps    = "collections.chunk_overlaps"
	keyDocuments        = "collections.documents"
	keyDocumentPrefix   = "collections.document_prefix"
	keyIDColumn         = "collections.id_column"
	keyEmbedBatchSize   = "collections.embed_batch_size"
	keyBuildConcurrency = "collections.concurrency"

	keyRetrievalCollection  = "retrieval.collection"
	keyRetrievalModel       = "retrieval.embedding_model"
	keyRetrievalTopK        = "retrieval.top_k"
	keyRetrievalTemperature = "retrieval.temperature"
	keyRetrievalMaxTokens   = "retrieval.max_tokens"

	keyPipelineProcessors = "pipeline.processors"
)

// Environment variables holding credentials and endpoints.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvQdrantURL    = "QDRANT_URL"
	EnvQdrantAPIKey = "QDRANT_API_KEY"
	EnvRedisURL     = "REDIS_URL"
)

// SettingsService maps configuration keys onto typed settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a settings service reading credentials from the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore, getenv: os.Getenv}
}

// Get builds settings from configuration, falling back to defaults, and
// fills credentials from the environment. Relative paths are resolved
// against the data directory.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Paths: domain.PathSettings{
			DataDir:      s.getString(keyDataDir, d.Paths.DataDir),
			Raw:          s.getString(keyRawDir, d.Paths.Raw),
			Extracted:    s.getString(keyExtractedDir, d.Paths.Extracted),
			Cleaned:      s.getString(keyCleanedDir, d.Paths.Cleaned),
			Images:       s.getString(keyImagesDir, d.Paths.Images),
			Vision:       s.getString(keyVisionDir, d.Paths.Vision),
			Unified:      s.getString(keyUnifiedDir, d.Paths.Unified),
			Logs:         s.getString(keyLogsDir, d.Paths.Logs),
			MetadataFile: s.getString(keyMetadataFile, d.Paths.MetadataFile),
		}.Resolve(),
		LLM: domain.ModelSettings{
			Provider:  s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:     s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:   s.configStore.GetString(keyLLMBaseURL),
			MaxTokens: s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
		},
		Vision: domain.ModelSettings{
			Provider:  s.getProvider(keyVisionProvider, d.Vision.Provider),
			Model:     s.getString(keyVisionModel, d.Vision.Model),
			BaseURL:   s.configStore.GetString(keyVisionBaseURL),
			MaxTokens: s.getInt(keyVisionMaxTokens, d.Vision.MaxTokens),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend: s.getBackend(d.VectorStore.Backend),
			Path:    s.getString(keyVectorPath, d.VectorStore.Path),
			URL:     s.configStore.GetString(keyVectorURL),
		},
		Extraction: domain.ExtractionSettings{
			Pattern:             s.getString(keyPattern, d.Extraction.Pattern),
			OCRLanguage:         s.getString(keyOCRLanguage, d.Extraction.OCRLanguage),
			RenderDPI:           s.getInt(keyRenderDPI, d.Extraction.RenderDPI),
			BoilerplatePatterns: s.configStore.GetStringSlice(keyBoilerplate),
		},
		Fusion: domain.GenerationSettings{
			Temperature: s.getFloat(keyFusionTemperature, d.Fusion.Temperature),
			MaxTokens:   s.getInt(keyFusionMaxTokens, d.Fusion.MaxTokens),
			TopP:        s.getFloat(keyFusionTopP, d.Fusion.TopP),
		},
		Throttle: domain.ThrottleSettings{
			VisionInterval:    s.getDuration(keyVisionInterval, d.Throttle.VisionInterval),
			VisionConcurrency: s.getInt(keyVisionConcurrency, d.Throttle.VisionConcurrency),
		},
		Retry: domain.RetrySettings{
			MaxAttempts: s.getInt(keyRetryAttempts, d.Retry.MaxAttempts),
			BaseDelay:   s.getDuration(keyRetryBaseDelay, d.Retry.BaseDelay),
			MaxDelay:    s.getDuration(keyRetryMaxDelay, d.Retry.MaxDelay),
			CallTimeout: s.getDuration(keyRetryCallTimeout, d.Retry.CallTimeout),
		},
		Collections: domain.CollectionSettings{
			IDColumn:       s.getString(keyIDColumn, d.Collections.IDColumn),
			EmbedBatchSize: s.getInt(keyEmbedBatchSize, d.Collections.EmbedBatchSize),
			Concurrency:    s.getInt(keyBuildConcurrency, d.Collections.Concurrency),
		},
		Retrieval: domain.RetrievalSettings{
			Collection:     s.configStore.GetString(keyRetrievalCollection),
			EmbeddingModel: s.getString(keyRetrievalModel, d.Retrieval.EmbeddingModel),
			TopK:           s.getInt(keyRetrievalTopK, d.Retrieval.TopK),
			Generation: domain.GenerationSettings{
				Temperature: s.getFloat(keyRetrievalTemperature, d.Retrieval.Generation.Temperature),
				MaxTokens:   s.getInt(keyRetrievalMaxTokens, d.Retrieval.Generation.MaxTokens),
			},
		},
	}

	plan, err := s.getPlan(d.Collections.Plan)
	if err != nil {
		return nil, err
	}
	settings.Collections.Plan = plan
	if settings.Retrieval.Collection == "" {
		if configs := plan.Configs(); len(configs) > 0 {
			settings.Retrieval.Collection = configs[0].Name
		}
	}

	if settings.VectorStore.Backend == domain.VectorBackendSQLite &&
		settings.VectorStore.Path != "" && !filepath.IsAbs(settings.VectorStore.Path) {
		settings.VectorStore.Path = filepath.Join(settings.Paths.DataDir, settings.VectorStore.Path)
	}

	s.applyEnvironment(settings)
	return settings, nil
}

// applyEnvironment fills credentials and endpoints. Secrets never come from the config file.
func (s *SettingsService) applyEnvironment(settings *domain.AppSettings) {
	keyFor := func(p domain.AIProvider) string {
		if env := p.APIKeyEnv(); env != "" {
			return s.getenv(env)
		}
		return ""
	}
	settings.LLM.APIKey = keyFor(settings.LLM.Provider)
	settings.Vision.APIKey = keyFor(settings.Vision.Provider)
	settings.Embedding.APIKey = keyFor(settings.Embedding.Provider)

	switch settings.VectorStore.Backend {
	case domain.VectorBackendQdrant:
		if url := s.getenv(EnvQdrantURL); url != "" {
			settings.VectorStore.URL = url
		}
		settings.VectorStore.APIKey = s.getenv(EnvQdrantAPIKey)
	case domain.VectorBackendRedis:
		if url := s.getenv(EnvRedisURL); url != "" {
			settings.VectorStore.URL = url
		}
	}
}

// getPlan reads the collection grid. Chunk sizes mix "page" and integers.
func (s *SettingsService) getPlan(d domain.CollectionPlan) (domain.CollectionPlan, error) {
	plan := domain.CollectionPlan{
		Prefix:          s.getString(keyCollectionPrefix, d.Prefix),
		EmbeddingModels: d.EmbeddingModels,
		ChunkSizes:      d.ChunkSizes,
		ChunkOverlaps:   d.ChunkOverlaps,
		DocumentIDs:     s.configStore.GetStringSlice(keyDocuments),
		DocumentPrefix:  s.configStore.GetString(keyDocumentPrefix),
	}
	if models := s.configStore.GetStringSlice(keyEmbeddingModels); len(models) > 0 {
		plan.EmbeddingModels = models
	}
	if raw := s.configStore.GetSlice(keyChunkSizes); len(raw) > 0 {
		sizes := make([]domain.ChunkSize, 0, len(raw))
		for _, v := range raw {
			size, err := domain.ParseChunkSize(v)
			if err != nil {
				return plan, fmt.Errorf("%s: %w", keyChunkSizes, err)
			}
			sizes = append(sizes, size)
		}
		plan.ChunkSizes = sizes
	}
	if raw := s.configStore.GetSlice(keyChunkOverlaps); len(raw) > 0 {
		overlaps := make([]int, 0, len(raw))
		for _, v := range raw {
			n, ok := toInt(v)
			if !ok {
				return plan, fmt.Errorf("%w: %s: %v is not an integer", domain.ErrInvalidInput, keyChunkOverlaps, v)
			}
			overlaps = append(overlaps, n)
		}
		plan.ChunkOverlaps = overlaps
	}
	return plan, nil
}

// Save persists the non-secret settings. API keys stay in the environment.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	sizes := make([]any, 0, len(settings.Collections.Plan.ChunkSizes))
	for _, c := range settings.Collections.Plan.ChunkSizes {
		if c.ByPage() {
			sizes = append(sizes, "page")
		} else {
			sizes = append(sizes, c.Size())
		}
	}
	values := []struct {
		key string
		val any
	}{
		{keyDataDir, settings.Paths.DataDir},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyVisionProvider, settings.Vision.Provider.String()},
		{keyVisionModel, settings.Vision.Model},
		{keyVisionBaseURL, settings.Vision.BaseURL},
		{keyVisionMaxTokens, settings.Vision.MaxTokens},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyVectorBackend, string(settings.VectorStore.Backend)},
		{keyPattern, settings.Extraction.Pattern},
		{keyOCRLanguage, settings.Extraction.OCRLanguage},
		{keyRenderDPI, settings.Extraction.RenderDPI},
		{keyFusionTemperature, settings.Fusion.Temperature},
		{keyFusionMaxTokens, settings.Fusion.MaxTokens},
		{keyFusionTopP, settings.Fusion.TopP},
		{keyVisionInterval, settings.Throttle.VisionInterval.String()},
		{keyVisionConcurrency, settings.Throttle.VisionConcurrency},
		{keyCollectionPrefix, settings.Collections.Plan.Prefix},
		{keyEmbeddingModels, settings.Collections.Plan.EmbeddingModels},
		{keyChunkSizes, sizes},
		{keyChunkOverlaps, settings.Collections.Plan.Overlaps()},
		{keyIDColumn, settings.Collections.IDColumn},
		{keyRetrievalCollection, settings.Retrieval.Collection},
		{keyRetrievalModel, settings.Retrieval.EmbeddingModel},
		{keyRetrievalTopK, settings.Retrieval.TopK},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// Validate checks settings structurally. Every problem is reported at once.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
	}

	if !isOneOf(settings.LLM.Provider, domain.AllLLMProviders()) {
		bad("llm provider %q does not support generation", settings.LLM.Provider)
	}
	if !isOneOf(settings.Vision.Provider, domain.AllLLMProviders()) {
		bad("vision provider %q does not support images", settings.Vision.Provider)
	}
	if !isOneOf(settings.Embedding.Provider, domain.AllEmbeddingProviders()) {
		bad("embedding provider %q does not support embeddings", settings.Embedding.Provider)
	}
	if !settings.VectorStore.Backend.IsValid() {
		bad("unknown vector store backend %q", settings.VectorStore.Backend)
	}
	if settings.VectorStore.Backend == domain.VectorBackendSQLite && settings.VectorStore.Path == "" {
		bad("sqlite vector store needs a path")
	}
	if settings.Paths.Raw == "" {
		bad("raw document directory is not set")
	}
	if settings.Extraction.RenderDPI <= 0 {
		bad("render dpi must be positive, got %d", settings.Extraction.RenderDPI)
	}
	if settings.Throttle.VisionConcurrency < 1 {
		bad("vision concurrency must be at least 1")
	}
	if settings.Throttle.VisionInterval < 0 {
		bad("vision interval must not be negative")
	}
	if settings.Retry.MaxAttempts < 1 {
		bad("retry attempts must be at least 1")
	}
	if settings.Retrieval.TopK < 0 {
		bad("top_k must not be negative")
	}
	if t := settings.Fusion.Temperature; t < 0 || t > 2 {
		bad("fusion temperature %.2f out of range", t)
	}
	if err := settings.Collections.Plan.ValidateConfigs(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(settings.Collections.IDColumn) == "" {
		bad("metadata id column is not set")
	}
	return errors.Join(errs...)
}

// Require reports which credentials the given needs are missing.
func (s *SettingsService) Require(settings *domain.AppSettings, needs domain.Needs) error {
	missing := settings.Missing(needs)
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing environment %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	defaults := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice(keyPipelineProcessors); len(processors) > 0 {
		defaults.Processors = processors
	}

	for _, name := range defaults.Processors {
		cfg := s.loadProcessorConfig("pipeline." + name + ".")
		if len(cfg) == 0 {
			continue
		}
		existing := defaults.ProcessorConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range cfg {
			existing[k] = v
		}
		defaults.ProcessorConfigs[name] = existing
	}

	return defaults
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)

	knownKeys := []string{"chunk_size", "overlap", "namespace"}
	for _, key := range knownKeys {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetDuration(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	// Invalid values are kept so Validate can report them.
	return domain.AIProvider(val)
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(keyVectorBackend)
	if val == "" {
		return defaultVal
	}
	return domain.VectorBackend(val)
}

func isOneOf(p domain.AIProvider, set []domain.AIProvider) bool {
	for _, v := range set {
		if v == p {
			return true
		}
	}
	return false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
