package doccontent

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

type mockDocumentService struct {
	pages map[string][]domain.Unit
	err   error
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockDocumentService) Pages(_ context.Context, id string) ([]domain.Unit, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pages[id], nil
}

func testService() *mockDocumentService {
	return &mockDocumentService{pages: map[string][]domain.Unit{
		"4": {
			{DocumentID: "4", Page: 1, Text: "Safety instructions"},
			{DocumentID: "4", Page: 2, Text: "Installation\nMount the unit."},
		},
	}}
}

func TestView_SetDocument(t *testing.T) {
	v := NewView(nil, testService())

	cmd := v.SetDocument("4")
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading pages...")

	v, _ = v.Update(cmd())

	require.Len(t, v.Pages(), 2)
	view := v.View()
	assert.Contains(t, view, "Document 4 (2 pages)")
	assert.Contains(t, view, "── page 1 ──")
	assert.Contains(t, view, "Mount the unit.")
}

func TestView_LoadError(t *testing.T) {
	v := NewView(nil, &mockDocumentService{err: domain.ErrNotFound})

	v, _ = v.Update(v.SetDocument("9")())

	assert.True(t, errors.Is(v.Err(), domain.ErrNotFound))
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)

	v, _ = v.Update(v.SetDocument("1")())

	assert.ErrorIs(t, v.Err(), ErrNoDocumentService)
}

func TestView_IgnoresStaleReply(t *testing.T) {
	v := NewView(nil, testService())
	stale := v.SetDocument("4")
	v.SetDocument("5")

	v, _ = v.Update(stale())

	assert.Empty(t, v.Pages())
	assert.Equal(t, "5", v.DocumentID())
}

func TestView_Scroll(t *testing.T) {
	long := strings.Repeat("line\n", 50)
	svc := &mockDocumentService{pages: map[string][]domain.Unit{"1": {{Page: 1, Text: long}}}}
	v := NewView(nil, svc)
	v.SetDimensions(80, 20)
	v, _ = v.Update(v.SetDocument("1")())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.ScrollOffset())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	assert.Equal(t, v.maxScrollOffset(), v.ScrollOffset())
	assert.Contains(t, v.View(), "[100%]")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Less(t, v.ScrollOffset(), v.maxScrollOffset())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	assert.Equal(t, 0, v.ScrollOffset())
}

func TestView_WrapsLongLines(t *testing.T) {
	svc := &mockDocumentService{pages: map[string][]domain.Unit{"1": {{Page: 1, Text: strings.Repeat("x", 50)}}}}
	v := NewView(nil, svc)
	v.SetDimensions(24, 40)

	v, _ = v.Update(v.SetDocument("1")())

	// Header plus 50 runes at width 20.
	assert.Len(t, v.lines, 4)
}

func TestView_EscGoesToDocuments(t *testing.T) {
	v := NewView(nil, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}
