package cli

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

type mockStageService struct {
	report *domain.StageReport
	err    error
	paths  []string
	all    int
	force  bool
}

func (m *mockStageService) result() (*domain.StageReport, error) {
	return m.report, m.err
}

// Extraction

func (m *mockStageService) Extract(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockStageService) ExtractFiles(_ context.Context, paths []string) (*domain.StageReport, error) {
	m.paths = paths
	return m.result()
}

func (m *mockStageService) ExtractAll(_ context.Context) (*domain.StageReport, error) {
	m.all++
	return m.result()
}

// Cleaning

func (m *mockStageService) Clean(text string) string { return text }

func (m *mockStageService) CleanDocument(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockStageService) CleanAll(_ context.Context) (*domain.StageReport, error) {
	m.all++
	return m.result()
}

// Raster

func (m *mockStageService) Rasterize(_ context.Context, _ string) ([]domain.PageImage, error) {
	return nil, m.err
}

func (m *mockStageService) RasterizeFiles(_ context.Context, paths []string) (*domain.StageReport, error) {
	m.paths = paths
	return m.result()
}

func (m *mockStageService) RasterizeAll(_ context.Context) (*domain.StageReport, error) {
	m.all++
	return m.result()
}

// Vision

func (m *mockStageService) Describe(_ context.Context, _ domain.PageImage) (string, bool) {
	return "", false
}

func (m *mockStageService) DescribeDocument(_ context.Context, _ string, force bool) (*domain.StageReport, error) {
	m.force = force
	return m.result()
}

func (m *mockStageService) DescribeAll(_ context.Context, force bool) (*domain.StageReport, error) {
	m.all++
	m.force = force
	return m.result()
}

// Fusion

func (m *mockStageService) Fuse(_ context.Context, _ domain.Page, _ string) (string, error) {
	return "", m.err
}

func (m *mockStageService) FuseDocument(_ context.Context, _ string) (*domain.StageReport, error) {
	return m.result()
}

func (m *mockStageService) FuseAll(_ context.Context) (*domain.StageReport, error) {
	m.all++
	return m.result()
}

type mockIngestService struct {
	reports []domain.StageReport
	err     error
	calls   []domain.IngestOptions
}

func (m *mockIngestService) Run(_ context.Context, opts domain.IngestOptions) ([]domain.StageReport, error) {
	m.calls = append(m.calls, opts)
	return m.reports, m.err
}

type mockCollectionService struct {
	plan   domain.CollectionPlan
	report *domain.BuildReport
	err    error
	names  []string
	built  *domain.CollectionPlan
}

func (m *mockCollectionService) Build(_ context.Context, plan domain.CollectionPlan) (*domain.BuildReport, error) {
	m.built = &plan
	return m.report, m.err
}

func (m *mockCollectionService) Plan(_ context.Context) (domain.CollectionPlan, error) {
	return m.plan, nil
}

func (m *mockCollectionService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

type mockAnswerService struct {
	response *driving.AskResponse
	err      error
	requests []driving.AskRequest
}

func (m *mockAnswerService) Ask(_ context.Context, req driving.AskRequest) (*driving.AskResponse, error) {
	m.requests = append(m.requests, req)
	return m.response, m.err
}

type mockDocumentService struct{}

func (m *mockDocumentService) Pages(_ context.Context, _ string) ([]domain.Unit, error) {
	return nil, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return nil, nil
}

type mockHealthService struct {
	results []domain.CheckResult
}

func (m *mockHealthService) Check(_ context.Context) []domain.CheckResult {
	return m.results
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	saved       *domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.saved = settings
	return nil
}

func (m *mockSettingsService) Validate(_ *domain.AppSettings) error {
	return m.validateErr
}

func (m *mockSettingsService) Require(_ *domain.AppSettings, _ domain.Needs) error {
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) GetPipelineConfig() domain.PipelineConfig {
	return domain.PipelineConfig{}
}
