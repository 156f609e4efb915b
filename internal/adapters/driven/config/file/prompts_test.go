package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultDirName, "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptFusion)
	require.NoError(t, err)

	for _, name := range Names() {
		_, err := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, err, name)
	}
	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "rag_answer.txt")
}

func TestPromptStore_DefaultsKeepPlaceholders(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	placeholders := map[string][]string{
		driven.PromptVisionDescribe:     nil,
		driven.PromptFusion:             {"{extracted}", "{description}"},
		driven.PromptRAGAnswer:          {"<context>{context}</context>", "{question}"},
		driven.PromptEvalStatements:     {"{question}", "{answer}"},
		driven.PromptEvalFaithfulness:   {"{context}", "{statements}"},
		driven.PromptEvalQuestions:      {"{answer}", "{count}"},
		driven.PromptEvalContextVerdict: {"{question}", "{reference}", "{context}"},
		driven.PromptEvalRecall:         {"{context}", "{reference}"},
	}
	for name, want := range placeholders {
		prompt, err := store.Load(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, prompt)
		for _, p := range want {
			assert.Contains(t, prompt, p, name)
		}
	}
	assert.Len(t, Names(), len(placeholders))
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Answer briefly.\n<context>{context}</context>\n{question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptRAGAnswer+".txt"), []byte("\n"+custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptRAGAnswer)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptFusion+".txt"), []byte("   \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptFusion)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptFusion], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptRAGAnswer)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptRAGAnswer], prompt)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptVisionDescribe)
	require.NoError(t, err)

	path := filepath.Join(dir, driven.PromptVisionDescribe+".txt")
	require.NoError(t, os.WriteFile(path, []byte("Describe the diagram."), 0600))

	prompt, _ := store.Load(driven.PromptVisionDescribe)
	assert.NotEqual(t, "Describe the diagram.", prompt)

	store.Reload()
	prompt, err = store.Load(driven.PromptVisionDescribe)
	require.NoError(t, err)
	assert.Equal(t, "Describe the diagram.", prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = store.Load(driven.PromptFusion)
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, driven.PromptEvalRecall+".txt")
	require.NoError(t, os.WriteFile(path, []byte("mine {context} {reference}"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptFusion)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "mine"))
}
