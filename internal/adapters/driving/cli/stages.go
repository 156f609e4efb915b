package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var describeForce bool

var extractCmd = &cobra.Command{
	Use:   "extract [pdf...]",
	Short: "Extract per-page text from PDFs",
	Long: `Extracts every page of the given PDFs, or of every PDF under the raw
directory. The embedded text layer is used when present; blank pages fall
back to OCR. Results are written to the extracted tree.`,
	RunE: runExtract,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Strip boilerplate from extracted pages",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

var rasterizeCmd = &cobra.Command{
	Use:   "rasterize [pdf...]",
	Short: "Render PDF pages to PNG images",
	RunE:  runRasterize,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe rendered pages with the vision model",
	Long: `Sends every rendered page image to the vision model and stores the
description next to the page. Pages that already have a description are
skipped unless --force is given. Calls are rate limited by throttle.*.`,
	Args: cobra.NoArgs,
	RunE: runDescribe,
}

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Merge cleaned text with vision descriptions",
	Args:  cobra.NoArgs,
	RunE:  runFuse,
}

func init() {
	describeCmd.Flags().BoolVar(&describeForce, "force", false, "re-describe pages that already have a description")
	rootCmd.AddCommand(extractCmd, cleanCmd, rasterizeCmd, describeCmd, fuseCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, 0, "extract")
	if err != nil {
		return err
	}
	if a.Extraction == nil {
		return errors.New("extraction service not configured")
	}
	var report *domain.StageReport
	if len(args) > 0 {
		report, err = a.Extraction.ExtractFiles(cmd.Context(), args)
	} else {
		report, err = a.Extraction.ExtractAll(cmd.Context())
	}
	return finishStage(cmd, report, err)
}

func runClean(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, 0, "clean")
	if err != nil {
		return err
	}
	if a.Cleaning == nil {
		return errors.New("cleaning service not configured")
	}
	report, err := a.Cleaning.CleanAll(cmd.Context())
	return finishStage(cmd, report, err)
}

func runRasterize(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, 0, "rasterize")
	if err != nil {
		return err
	}
	if a.Raster == nil {
		return errors.New("raster service not configured")
	}
	var report *domain.StageReport
	if len(args) > 0 {
		report, err = a.Raster.RasterizeFiles(cmd.Context(), args)
	} else {
		report, err = a.Raster.RasterizeAll(cmd.Context())
	}
	return finishStage(cmd, report, err)
}

func runDescribe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, domain.NeedVision, "describe")
	if err != nil {
		return err
	}
	if a.Vision == nil {
		return errors.New("vision service not configured")
	}
	report, err := a.Vision.DescribeAll(cmd.Context(), describeForce)
	return finishStage(cmd, report, err)
}

func runFuse(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, domain.NeedLLM, "fuse")
	if err != nil {
		return err
	}
	if a.Fusion == nil {
		return errors.New("fusion service not configured")
	}
	report, err := a.Fusion.FuseAll(cmd.Context())
	return finishStage(cmd, report, err)
}

// finishStage prints the report, if any, and returns the stage error.
func finishStage(cmd *cobra.Command, report *domain.StageReport, err error) error {
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmd.Name(), err)
	}
	return nil
}

func printReport(cmd *cobra.Command, r *domain.StageReport) {
	cmd.Printf("[%s] %d documents, %d pages written, %d skipped, %d failures\n",
		r.Stage, r.Documents, r.Pages, r.Skipped, len(r.Failures))

	keys := make([]string, 0, len(r.Failures))
	for k := range r.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %s\n", k, r.Failures[k])
	}
}
