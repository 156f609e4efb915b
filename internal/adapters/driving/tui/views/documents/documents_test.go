package documents

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

type mockDocumentService struct {
	ids []string
	err error
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return m.ids, m.err
}

func (m *mockDocumentService) Pages(_ context.Context, _ string) ([]domain.Unit, error) {
	return nil, nil
}

func loaded(t *testing.T, svc *mockDocumentService) *View {
	t.Helper()
	v := NewView(nil, svc)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())
	return v
}

func TestView_Load(t *testing.T) {
	v := loaded(t, &mockDocumentService{ids: []string{"1", "2", "10"}})

	assert.Equal(t, []string{"1", "2", "10"}, v.Documents())
	assert.NoError(t, v.Err())
	view := v.View()
	assert.Contains(t, view, "Documents (3)")
	assert.Contains(t, view, "> document 1")
}

func TestView_LoadError(t *testing.T) {
	v := loaded(t, &mockDocumentService{err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
	assert.Contains(t, v.View(), "Error: boom")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)

	v, _ = v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), ErrNoDocumentService)
}

func TestView_Empty(t *testing.T) {
	v := loaded(t, &mockDocumentService{})

	assert.Contains(t, v.View(), "No unified documents")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestView_SelectDocument(t *testing.T) {
	v := loaded(t, &mockDocumentService{ids: []string{"1", "2"}})

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "2", v.SelectedDocument())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.DocumentSelected{DocumentID: "2"}, cmd())
}

func TestView_Scroll(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5"}
	v := NewView(nil, &mockDocumentService{ids: ids})
	v.SetDimensions(80, 10)
	v, _ = v.Update(v.Init()())

	for range 4 {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	}

	view := v.View()
	assert.Contains(t, view, "> document 5")
	assert.Contains(t, view, "of 5]")
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
