package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBar(t *testing.T) {
	b := NewBar(nil, nil)

	assert.Equal(t, StateReady, b.State())
	assert.Contains(t, b.View(), "Ready")
	assert.Contains(t, b.View(), "enter: ask")
}

func TestBar_Start(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetMessage("old")

	cmd := b.Start()

	assert.NotNil(t, cmd)
	assert.Equal(t, StateAsking, b.State())
	assert.Empty(t, b.Message())
	assert.Contains(t, b.View(), "Answering...")
}

func TestBar_Answered(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(120)
	b.SetState(StateAnswered)
	b.SetSourceCount(4)
	b.SetMessage("evaluation failed")

	view := b.View()

	assert.Contains(t, view, "4 sources")
	assert.Contains(t, view, "evaluation failed")
	assert.Contains(t, view, "n: new question")
}

func TestBar_Error(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetState(StateError)
	assert.Contains(t, b.View(), "Error")

	b.SetMessage("store unavailable")
	assert.Contains(t, b.View(), "Error: store unavailable")
}

func TestBar_UpdateIgnoredWhenIdle(t *testing.T) {
	b := NewBar(nil, nil)

	_, cmd := b.Update(nil)

	assert.Nil(t, cmd)
}

func TestBar_Clear(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetState(StateAnswered)
	b.SetSourceCount(3)
	b.SetMessage("x")

	b.Clear()

	assert.Equal(t, StateReady, b.State())
	assert.Equal(t, 0, b.SourceCount())
	assert.Empty(t, b.Message())
}
