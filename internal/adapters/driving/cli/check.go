package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/pdf/poppler"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check tools, credentials and services",
	Long: `Check everything the pipeline depends on: the poppler and tesseract
binaries, the configured model providers and the vector store. Nothing is
written. Exits non-zero if any check fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, 0, "")
	if err != nil {
		return err
	}
	if a.Health == nil {
		return errors.New("health service not configured")
	}

	results := a.Health.Check(cmd.Context())
	for _, r := range results {
		cmd.Printf("%-10s %-14s %s\n", checkMark(r.Status), r.Name, r.Detail)
	}

	if !domain.HasFailures(results) {
		cmd.Println()
		cmd.Println("All checks passed.")
		return nil
	}

	if poppler.CheckAvailable() != nil {
		cmd.Println()
		cmd.Println(poppler.InstallInstructions())
	}
	if tesseract.CheckAvailable() != nil {
		cmd.Println()
		cmd.Println(tesseract.InstallInstructions())
	}
	return errors.New("one or more checks failed")
}

func checkMark(s domain.CheckStatus) string {
	switch s {
	case domain.CheckOK:
		return "[ok]"
	case domain.CheckFailed:
		return "[FAILED]"
	default:
		return "[skipped]"
	}
}
