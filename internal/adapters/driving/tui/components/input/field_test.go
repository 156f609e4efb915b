package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewField(t *testing.T) {
	f := NewField(nil, "Question", "Ask something...", 512)

	require.NotNil(t, f)
	assert.Equal(t, "Question", f.Label())
	assert.False(t, f.Focused())
	assert.Empty(t, f.Value())
}

func TestField_TypingWhenFocused(t *testing.T) {
	f := NewField(nil, "Question", "", 0)
	f.Focus()

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("oil")})

	assert.Equal(t, "oil", f.Value())
}

func TestField_IgnoresKeysWhenBlurred(t *testing.T) {
	f := NewField(nil, "Question", "", 0)

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.Empty(t, f.Value())
}

func TestField_SetValueAndReset(t *testing.T) {
	f := NewField(nil, "Doc ID", "", 10)
	f.SetValue("42")
	assert.Equal(t, "42", f.Value())

	f.Reset()
	assert.Empty(t, f.Value())
}

func TestField_SetWidth(t *testing.T) {
	f := NewField(nil, "Reference", "", 0)

	f.SetWidth(100)
	assert.Equal(t, 100, f.Width())

	f.SetWidth(10)
	assert.Equal(t, 10, f.Width())
}

func TestField_View(t *testing.T) {
	f := NewField(nil, "Question", "", 0)
	f.SetValue("how to reset")

	view := f.View()

	assert.Contains(t, view, "Question")
	assert.Contains(t, view, "how to reset")
}
