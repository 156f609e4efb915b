// Package wiring builds the application's services from configuration.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	artifactsfile "github.com/custodia-labs/manualqa/internal/adapters/driven/artifacts/file"
	configfile "github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/evaluation/judge"
	metadatacsv "github.com/custodia-labs/manualqa/internal/adapters/driven/metadata/csv"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/pdf/poppler"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/core/services"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
)

// Options selects the configuration file and the external services to connect.
type Options struct {
	// ConfigPath overrides ~/.manualqa/config.toml.
	ConfigPath string

	// PromptDir overrides ~/.manualqa/prompts.
	PromptDir string

	// Needs lists the external services the command requires. Required
	// services are connected up front and a missing credential fails the build.
	Needs domain.Needs
}

// App holds the services of one run. Services whose dependencies were not
// requested are still present but fail when used.
type App struct {
	Config *domain.AppSettings

	Settings    driving.SettingsService
	Extraction  driving.ExtractionService
	Cleaning    driving.CleaningService
	Raster      driving.RasterService
	Vision      driving.VisionService
	Fusion      driving.FusionService
	Ingest      driving.IngestService
	Collections driving.CollectionService
	Answer      driving.AnswerService
	Documents   driving.DocumentService
	Health      driving.HealthService

	closers []func() error
}

// Close releases every connection opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Build loads configuration and constructs every service.
func Build(ctx context.Context, opts Options) (*App, error) {
	configStore, err := configfile.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, err
	}
	if err := settingsSvc.Validate(settings); err != nil {
		return nil, err
	}
	if err := settingsSvc.Require(settings, opts.Needs); err != nil {
		return nil, err
	}

	prompts, err := configfile.NewPromptStore(opts.PromptDir)
	if err != nil {
		return nil, err
	}

	app := &App{Config: settings, Settings: settingsSvc}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	factory := ai.NewFactory(settings)
	app.closers = append(app.closers, factory.Close)

	artifacts := artifactsfile.NewStore(settings.Paths)
	pdf := poppler.New(settings.Extraction.RenderDPI)
	ocr := tesseract.New(settings.Extraction.OCRLanguage)
	retry := services.NewRetryPolicy(settings.Retry)

	var llm driven.LLMService
	if opts.Needs&domain.NeedLLM != 0 {
		svc, err := factory.LLM(ctx)
		if err != nil {
			return nil, err
		}
		llm = svc
	}

	var vision driven.VisionService
	if opts.Needs&domain.NeedVision != 0 {
		svc, err := factory.Vision(ctx)
		if err != nil {
			return nil, err
		}
		vision = svc
	}

	var store driven.VectorStore
	if opts.Needs&domain.NeedVectorStore != 0 {
		store, err = OpenVectorStore(ctx, settings.VectorStore, settings.Retry.CallTimeout)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, store.Close)
	}

	sanitizer, err := services.NewSanitizer(settings.Extraction.BoilerplatePatterns, artifacts)
	if err != nil {
		return nil, err
	}
	extractor := services.NewExtractor(pdf, ocr, artifacts, services.ExtractorConfig{
		RawDir:  settings.Paths.Raw,
		Pattern: settings.Extraction.Pattern,
	})
	rasterizer := services.NewRasterizer(pdf, artifacts, settings.Paths.Raw, settings.Extraction.Pattern)
	describer := services.NewVisionDescriber(vision, artifacts, prompts,
		ratelimit.New(settings.Throttle.VisionInterval),
		services.VisionConfig{
			MaxTokens:   settings.Vision.MaxTokens,
			Concurrency: settings.Throttle.VisionConcurrency,
			Retry:       retry,
		})
	fusion := services.NewFusion(llm, artifacts, prompts, settings.Fusion, retry)

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipelines := postprocessors.NewBuilder(registry, settingsSvc.GetPipelineConfig())

	app.Extraction = extractor
	app.Cleaning = sanitizer
	app.Raster = rasterizer
	app.Vision = describer
	app.Fusion = fusion
	app.Ingest = services.NewIngest(extractor, sanitizer, rasterizer, describer, fusion)
	app.Collections = services.NewCollectionBuilder(
		artifacts,
		metadatacsv.NewSource(settings.Paths.MetadataFile, settings.Collections.IDColumn),
		factory,
		store,
		pipelines,
		services.CollectionBuilderConfig{
			Plan:           settings.Collections.Plan,
			EmbedBatchSize: settings.Collections.EmbedBatchSize,
			Concurrency:    settings.Collections.Concurrency,
			Retry:          retry,
		},
	)
	app.Answer = services.NewAnswerer(factory, store, llm, prompts,
		services.NewEvaluator(newHarness(ctx, factory, llm, prompts, settings, opts.Needs, retry)),
		settings.Retrieval, retry).WithPlan(settings.Collections.Plan)
	app.Documents = services.NewDocumentBrowser(artifacts)
	app.Health = &healthChecker{
		validator: ai.NewConfigValidator(factory),
		settings:  settings,
		store:     store,
	}

	ok = true
	return app, nil
}

// newHarness returns the evaluation harness, or nil when the judge or the
// embedding model is unavailable.
func newHarness(
	ctx context.Context,
	factory *ai.Factory,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings *domain.AppSettings,
	needs domain.Needs,
	retry services.RetryPolicy,
) driven.EvaluationHarness {
	if llm == nil || needs&domain.NeedEmbedding == 0 {
		return nil
	}
	embedder, err := factory.ForModel(ctx, settings.Retrieval.EmbeddingModel)
	if err != nil {
		logger.Debug("Evaluation disabled: %v", err)
		return nil
	}
	h, err := judge.NewHarness(services.NewRetryingLLM(llm, retry), embedder, prompts)
	if err != nil {
		logger.Debug("Evaluation disabled: %v", err)
		return nil
	}
	return h
}

// OpenVectorStore connects the configured vector store backend.
func OpenVectorStore(ctx context.Context, s domain.VectorStoreSettings, timeout time.Duration) (driven.VectorStore, error) {
	switch s.Backend {
	case domain.VectorBackendSQLite:
		store, err := sqlite.NewStore(s.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.VectorBackendQdrant:
		store, err := qdrant.NewStore(qdrant.Config{URL: s.URL, APIKey: s.APIKey, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.VectorBackendRedis:
		store, err := redis.NewStore(ctx, s.URL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.VectorBackendMemory:
		return memory.NewVectorStore(), nil
	default:
		return nil, fmt.Errorf("%w: vector store backend %q", domain.ErrUnsupportedType, s.Backend)
	}
}
