package tui

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

type mockAnswerService struct {
	response *driving.AskResponse
	err      error
}

func (m *mockAnswerService) Ask(_ context.Context, _ driving.AskRequest) (*driving.AskResponse, error) {
	return m.response, m.err
}

type mockDocumentService struct {
	ids   []string
	pages []domain.Unit
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return m.ids, nil
}

func (m *mockDocumentService) Pages(_ context.Context, _ string) ([]domain.Unit, error) {
	return m.pages, nil
}
