package domain

import (
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for generation or embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI API or any OpenAI-compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is a local Ollama instance (embeddings only).
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGemini, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// APIKeyEnv returns the environment variable holding the provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud or compatible endpoint)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies a vector store implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendSQLite VectorBackend = "sqlite"
	VectorBackendQdrant VectorBackend = "qdrant"
	VectorBackendRedis  VectorBackend = "redis"
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendSQLite, VectorBackendQdrant, VectorBackendRedis, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// ModelSettings configures one generative model endpoint.
type ModelSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// MaxTokens bounds the response length; 0 leaves it to the provider.
	MaxTokens int
}

// IsConfigured returns true if the provider is set up.
func (m ModelSettings) IsConfigured() bool {
	if !m.Provider.IsValid() || m.Provider == AIProviderOllama {
		return false
	}
	if m.Provider.RequiresAPIKey() && m.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
// The model is chosen per collection.
type EmbeddingSettings struct {
	Provider AIProvider
	BaseURL  string
	APIKey   string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if e.Provider != AIProviderOpenAI && e.Provider != AIProviderOllama {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings selects and configures the vector store.
type VectorStoreSettings struct {
	Backend VectorBackend

	// Path is the database file for the sqlite backend.
	Path string

	// URL is the endpoint for the qdrant and redis backends.
	URL string

	// APIKey authenticates against qdrant.
	APIKey string
}

// PathSettings locates the corpus and the intermediate artifact trees.
type PathSettings struct {
	DataDir      string
	Raw          string
	Extracted    string
	Cleaned      string
	Images       string
	Vision       string
	Unified      string
	Logs         string
	MetadataFile string
}

// Resolve joins relative paths onto DataDir.
func (p PathSettings) Resolve() PathSettings {
	join := func(v string) string {
		if v == "" || filepath.IsAbs(v) {
			return v
		}
		return filepath.Join(p.DataDir, v)
	}
	return PathSettings{
		DataDir:      p.DataDir,
		Raw:          join(p.Raw),
		Extracted:    join(p.Extracted),
		Cleaned:      join(p.Cleaned),
		Images:       join(p.Images),
		Vision:       join(p.Vision),
		Unified:      join(p.Unified),
		Logs:         join(p.Logs),
		MetadataFile: join(p.MetadataFile),
	}
}

// ExtractionSettings tunes page extraction and cleaning.
type ExtractionSettings struct {
	// Pattern selects source documents under the raw directory.
	Pattern string

	// OCRLanguage is passed to the OCR engine (e.g. "por").
	OCRLanguage string

	// RenderDPI is the raster resolution for OCR and vision images.
	RenderDPI int

	// BoilerplatePatterns overrides the default cleaning rules when non-empty.
	BoilerplatePatterns []string
}

// GenerationSettings holds sampling parameters for one generation use.
type GenerationSettings struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// ThrottleSettings is the scheduling policy for the vision service.
type ThrottleSettings struct {
	// VisionInterval is the minimum delay between consecutive vision calls.
	VisionInterval time.Duration

	// VisionConcurrency bounds in-flight vision calls.
	VisionConcurrency int
}

// RetrySettings governs retries of transient external-service errors.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// CallTimeout bounds every external call.
	CallTimeout time.Duration
}

// CollectionSettings configures collection builds.
type CollectionSettings struct {
	Plan CollectionPlan

	// IDColumn is the side-table column holding the numeric document identifier.
	IDColumn string

	// EmbedBatchSize is the number of texts per embedding request.
	EmbedBatchSize int

	// Concurrency bounds how many collections build at once.
	Concurrency int
}

// RetrievalSettings configures question answering.
type RetrievalSettings struct {
	Collection     string
	EmbeddingModel string
	TopK           int
	Generation     GenerationSettings
}

// AppSettings holds all application settings.
// It is built once and passed into each component's constructor.
type AppSettings struct {
	Paths       PathSettings
	LLM         ModelSettings
	Vision      ModelSettings
	Embedding   EmbeddingSettings
	VectorStore VectorStoreSettings
	Extraction  ExtractionSettings
	Fusion      GenerationSettings
	Throttle    ThrottleSettings
	Retry       RetrySettings
	Collections CollectionSettings
	Retrieval   RetrievalSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Credentials are left empty and come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Paths: PathSettings{
			DataDir:      "data",
			Raw:          "raw",
			Extracted:    "processed",
			Cleaned:      "processed_clean",
			Images:       "images",
			Vision:       "vision",
			Unified:      "unified",
			Logs:         "logs",
			MetadataFile: "metadata.csv",
		},
		LLM: ModelSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Vision: ModelSettings{
			Provider:  AIProviderOpenAI,
			Model:     "gpt-4o-mini",
			MaxTokens: 600,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
		},
		VectorStore: VectorStoreSettings{
			Backend: VectorBackendSQLite,
			Path:    "vectors.db",
		},
		Extraction: ExtractionSettings{
			Pattern:     "**/*.pdf",
			OCRLanguage: "por",
			RenderDPI:   150,
		},
		Fusion: GenerationSettings{
			Temperature: 0.3,
			MaxTokens:   1000,
			TopP:        1,
		},
		Throttle: ThrottleSettings{
			VisionInterval:    time.Second,
			VisionConcurrency: 1,
		},
		Retry: RetrySettings{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			CallTimeout: 60 * time.Second,
		},
		Collections: CollectionSettings{
			Plan: CollectionPlan{
				Prefix:          "manuals",
				EmbeddingModels: []string{"text-embedding-3-small"},
				ChunkSizes:      []ChunkSize{ChunkByPage},
				ChunkOverlaps:   []int{0},
			},
			IDColumn:       "arquivo_id",
			EmbedBatchSize: 64,
			Concurrency:    1,
		},
		Retrieval: RetrievalSettings{
			EmbeddingModel: "text-embedding-3-small",
			TopK:           4,
			Generation: GenerationSettings{
				Temperature: 0,
			},
		},
	}
}

// Needs flags the external services an operation depends on.
type Needs uint8

// Service requirements.
const (
	NeedLLM Needs = 1 << iota
	NeedVision
	NeedEmbedding
	NeedVectorStore
)

// Missing lists the credentials or endpoints absent for the given needs,
// by the environment variable that supplies them.
func (s AppSettings) Missing(needs Needs) []string {
	var missing []string
	add := func(v string) {
		for _, m := range missing {
			if m == v {
				return
			}
		}
		missing = append(missing, v)
	}
	if needs&NeedLLM != 0 && s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		add(s.LLM.Provider.APIKeyEnv())
	}
	if needs&NeedVision != 0 && s.Vision.Provider.RequiresAPIKey() && s.Vision.APIKey == "" {
		add(s.Vision.Provider.APIKeyEnv())
	}
	if needs&NeedEmbedding != 0 && s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		add(s.Embedding.Provider.APIKeyEnv())
	}
	if needs&NeedVectorStore != 0 && s.VectorStore.URL == "" {
		switch s.VectorStore.Backend {
		case VectorBackendQdrant:
			add("QDRANT_URL")
		case VectorBackendRedis:
			add("REDIS_URL")
		}
	}
	return missing
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderGemini}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderOllama}
}

// EmbeddingDimensions returns the vector dimensions for known models.
// Unknown models are sized from their first embedding.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// Multilingual models
		"multilingual-e5-large": 1024,
		"multilingual-e5-base":  768,
		"bge-m3":                1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
