package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func testPlan() domain.CollectionPlan {
	return domain.CollectionPlan{
		Prefix:          "manuals",
		EmbeddingModels: []string{"text-embedding-3-small"},
		ChunkSizes:      []domain.ChunkSize{domain.ChunkByPage},
		ChunkOverlaps:   []int{0},
		DocumentIDs:     []string{"10", "11", "20"},
	}
}

func TestBuildCmd_DryRun(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.collections.plan = testPlan()

	out, err := run(t, "build", "--dry-run", "--doc-prefix", "1")

	require.NoError(t, err)
	assert.Nil(t, svcs.collections.built)
	assert.Contains(t, out, "2 documents selected")
	for _, cfg := range testPlan().Configs() {
		assert.Contains(t, out, cfg.Name)
	}
}

func TestBuildCmd_Builds(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	plan := testPlan()
	cfg := plan.Configs()[0]
	svcs.collections.plan = plan
	svcs.collections.report = &domain.BuildReport{
		Units:    3,
		Outcomes: []domain.CollectionOutcome{{Config: cfg, Chunks: 12}},
	}

	out, err := run(t, "build", "--docs", "10,20")

	require.NoError(t, err)
	require.NotNil(t, svcs.collections.built)
	assert.Equal(t, []string{"10", "20"}, svcs.collections.built.DocumentIDs)
	assert.Contains(t, out, "Loaded 3 units")
	assert.Contains(t, out, cfg.Name+": 12 chunks")
}

func TestBuildCmd_PartialFailure(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	plan := testPlan()
	plan.ChunkOverlaps = []int{0, 50}
	plan.ChunkSizes = []domain.ChunkSize{domain.FixedChunkSize(500)}
	configs := plan.Configs()
	require.Len(t, configs, 2)
	svcs.collections.plan = plan
	svcs.collections.report = &domain.BuildReport{
		Outcomes: []domain.CollectionOutcome{
			{Config: configs[0], Chunks: 4},
			{Config: configs[1], Err: errors.New("embedding quota")},
		},
	}

	out, err := run(t, "build")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 collections failed")
	assert.Contains(t, out, "FAILED: embedding quota")
}

func TestBuildCmd_StoreOutage(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.collections.plan = testPlan()
	svcs.collections.err = errors.New("connection refused")

	_, err := run(t, "build")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed")
}

func TestCollectionsCmd_Lists(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.collections.names = []string{"manuals_a", "manuals_b"}

	out, err := run(t, "collections")

	require.NoError(t, err)
	assert.Contains(t, out, "manuals_a\nmanuals_b\n")
}

func TestCollectionsCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "collections")

	require.NoError(t, err)
	assert.Contains(t, out, "No collections")
}
