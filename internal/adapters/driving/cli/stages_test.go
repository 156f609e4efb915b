package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestExtractCmd_AllDocuments(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.stages.report = &domain.StageReport{Stage: domain.StageExtract, Documents: 2, Pages: 14}

	out, err := run(t, "extract")

	require.NoError(t, err)
	assert.Equal(t, 1, svcs.stages.all)
	assert.Contains(t, out, "[extract] 2 documents, 14 pages written, 0 skipped, 0 failures")
}

func TestExtractCmd_GivenFiles(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "extract", "a.pdf", "b.pdf")

	require.NoError(t, err)
	assert.Equal(t, 0, svcs.stages.all)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, svcs.stages.paths)
}

func TestRasterizeCmd_GivenFiles(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "rasterize", "pump.pdf")

	require.NoError(t, err)
	assert.Equal(t, []string{"pump.pdf"}, svcs.stages.paths)
}

func TestCleanCmd_PrintsFailuresSorted(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.stages.report = &domain.StageReport{
		Stage:    domain.StageClean,
		Failures: map[string]string{"b": "unreadable", "a": "missing pages"},
	}

	out, err := run(t, "clean")

	require.NoError(t, err)
	assert.Contains(t, out, "2 failures")
	assert.Less(t, strings.Index(out, "a: missing pages"), strings.Index(out, "b: unreadable"))
}

func TestDescribeCmd_PassesForce(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "describe", "--force")

	require.NoError(t, err)
	assert.True(t, svcs.stages.force)
}

func TestFuseCmd_WrapsError(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.stages.report = &domain.StageReport{Stage: domain.StageFuse, Pages: 3}
	svcs.stages.err = errors.New("llm unavailable")

	out, err := run(t, "fuse")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuse failed: llm unavailable")
	assert.Contains(t, out, "[fuse]")
}

func TestStageCmds_RejectArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	for _, name := range []string{"clean", "describe", "fuse"} {
		_, err := run(t, name, "extra")
		assert.Error(t, err, name)
	}
}
