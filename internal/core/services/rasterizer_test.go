package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestRasterizer_Rasterize(t *testing.T) {
	pdf := &mockPDF{pages: map[string][]string{"raw/d_1.pdf": {"a", "b"}}}
	store := memory.NewArtifactStore(t.TempDir())
	r := NewRasterizer(pdf, store, "", "")

	images, err := r.Rasterize(context.Background(), "raw/d_1.pdf")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, domain.PageKey{DocumentID: "d_1", Page: 2}, images[1].Key)
	assert.Equal(t, "d_1_pag2.jpg", filepath.Base(images[1].Path))

	listed, err := store.Images(context.Background(), "d_1")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestRasterizer_RenderFailureSkipsPage(t *testing.T) {
	pdf := &mockPDF{pages: map[string][]string{"d_1.pdf": {"a"}}, renderErr: errors.New("pdftoppm failed")}
	r := NewRasterizer(pdf, memory.NewArtifactStore(t.TempDir()), "", "")

	images, err := r.Rasterize(context.Background(), "d_1.pdf")
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestRasterizer_RasterizeAll(t *testing.T) {
	raw := t.TempDir()
	good := filepath.Join(raw, "d_1.pdf")
	touch(t, good)
	touch(t, filepath.Join(raw, "d_2.pdf"))

	pdf := &mockPDF{pages: map[string][]string{good: {"a", "b", "c"}}}
	r := NewRasterizer(pdf, memory.NewArtifactStore(t.TempDir()), raw, "*.pdf")

	report, err := r.RasterizeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Documents)
	assert.Equal(t, 3, report.Pages)
	assert.Contains(t, report.Failures, "d_2")
}
