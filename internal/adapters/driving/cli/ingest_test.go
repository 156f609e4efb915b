package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestIngestCmd_RunsAllStages(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.ingest.reports = []domain.StageReport{
		{Stage: domain.StageExtract, Documents: 1, Pages: 5},
		{Stage: domain.StageFuse, Documents: 1, Pages: 5},
	}

	out, err := run(t, "ingest")

	require.NoError(t, err)
	require.Len(t, svcs.ingest.calls, 1)
	assert.Empty(t, svcs.ingest.calls[0].Skip)
	assert.Contains(t, out, "[extract] 1 documents")
	assert.Contains(t, out, "[fuse] 1 documents")
}

func TestIngestCmd_SkipAndForce(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "ingest", "--skip", "describe,fuse", "--force", "manual.pdf")

	require.NoError(t, err)
	require.Len(t, svcs.ingest.calls, 1)
	opts := svcs.ingest.calls[0]
	assert.Equal(t, []string{"manual.pdf"}, opts.Files)
	assert.True(t, opts.Force)
	assert.True(t, opts.Skips(domain.StageDescribe))
	assert.True(t, opts.Skips(domain.StageFuse))
	assert.False(t, opts.Skips(domain.StageExtract))
}

func TestIngestCmd_UnknownStage(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "ingest", "--skip", "index")

	assert.Error(t, err)
	assert.Empty(t, svcs.ingest.calls)
}

func TestIngestCmd_ReportsPartialProgress(t *testing.T) {
	svcs, cleanup := setupTestServices()
	defer cleanup()
	svcs.ingest.reports = []domain.StageReport{{Stage: domain.StageExtract, Documents: 1}}
	svcs.ingest.err = errors.New("clean: disk full")

	out, err := run(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed")
	assert.Contains(t, out, "[extract]")
}

func TestIngestOptions_Needs(t *testing.T) {
	defer func() { ingestSkip = nil }()

	tests := []struct {
		name string
		skip []string
		want domain.Needs
	}{
		{"all stages", nil, domain.NeedVision | domain.NeedLLM},
		{"no describe", []string{"describe"}, domain.NeedLLM},
		{"no fuse", []string{"fuse"}, domain.NeedVision},
		{"text only", []string{"describe", " fuse "}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestSkip = tt.skip
			_, needs, err := ingestOptions(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, needs)
		})
	}
}

func TestWatchCmd_Flags(t *testing.T) {
	for _, name := range []string{"skip", "force", "settle"} {
		assert.NotNil(t, watchCmd.Flags().Lookup(name), name)
	}
}
