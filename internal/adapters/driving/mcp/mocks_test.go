package mcp

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	resp *driving.AskResponse
	err  error
	last driving.AskRequest
}

func (m *mockAnswerService) Ask(_ context.Context, req driving.AskRequest) (*driving.AskResponse, error) {
	m.last = req
	return m.resp, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	names []string
	err   error
}

func (m *mockCollectionService) Build(_ context.Context, _ domain.CollectionPlan) (*domain.BuildReport, error) {
	return &domain.BuildReport{}, m.err
}

func (m *mockCollectionService) Plan(_ context.Context) (domain.CollectionPlan, error) {
	return domain.CollectionPlan{}, m.err
}

func (m *mockCollectionService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	ids   []string
	units []domain.Unit
	err   error
}

func (m *mockDocumentService) Pages(_ context.Context, _ string) ([]domain.Unit, error) {
	return m.units, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return m.ids, m.err
}
