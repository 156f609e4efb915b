package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/watcher"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
)

var (
	ingestSkip  []string
	ingestForce bool
	watchSettle time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdf...]",
	Short: "Run every ingestion stage",
	Long: `Runs extract, clean, rasterize, describe and fuse in order, for the
given PDFs or for the whole raw directory.

Examples:
  manualqa ingest
  manualqa ingest data/raw/pump.pdf
  manualqa ingest --skip describe,fuse`,
	RunE: runIngest,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest PDFs as they appear in the raw directory",
	Long: `Watches the raw directory and runs the ingestion stages for every PDF
that is created or rewritten. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	for _, c := range []*cobra.Command{ingestCmd, watchCmd} {
		c.Flags().StringSliceVar(&ingestSkip, "skip", nil,
			"stages to skip (extract, clean, rasterize, describe, fuse)")
		c.Flags().BoolVar(&ingestForce, "force", false, "re-describe pages that already have a description")
	}
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle,
		"quiet time before a changed file is ingested")
	rootCmd.AddCommand(ingestCmd, watchCmd)
}

// ingestOptions parses --skip and returns the options with the services
// the remaining stages need.
func ingestOptions(files []string) (domain.IngestOptions, domain.Needs, error) {
	opts := domain.IngestOptions{Files: files, Force: ingestForce}
	for _, raw := range ingestSkip {
		stage, err := domain.ParseIngestStage(strings.TrimSpace(raw))
		if err != nil {
			return opts, 0, err
		}
		opts.Skip = append(opts.Skip, stage)
	}

	var needs domain.Needs
	if !opts.Skips(domain.StageDescribe) {
		needs |= domain.NeedVision
	}
	if !opts.Skips(domain.StageFuse) {
		needs |= domain.NeedLLM
	}
	return opts, needs, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	opts, needs, err := ingestOptions(args)
	if err != nil {
		return err
	}
	a, err := loadApp(cmd, needs, "ingest")
	if err != nil {
		return err
	}
	if a.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	reports, err := a.Ingest.Run(cmd.Context(), opts)
	for i := range reports {
		printReport(cmd, &reports[i])
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	opts, needs, err := ingestOptions(nil)
	if err != nil {
		return err
	}
	a, err := loadApp(cmd, needs, "watch")
	if err != nil {
		return err
	}
	if a.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	w := watcher.New(a.Config.Paths.Raw, a.Config.Extraction.Pattern, watchSettle)
	paths, err := w.Watch(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for new PDFs (Ctrl+C to stop)\n", a.Config.Paths.Raw)

	for path := range paths {
		logger.Info("ingesting %s", path)
		opts.Files = []string{path}
		reports, err := a.Ingest.Run(cmd.Context(), opts)
		for i := range reports {
			printReport(cmd, &reports[i])
		}
		if err != nil {
			// One bad file does not stop the watch.
			logger.Error("ingest %s: %v", path, err)
		}
	}
	return nil
}
