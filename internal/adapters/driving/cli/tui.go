package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/wiring"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Ask questions with an optional reference answer and document filter, read
the rendered answer with its sources and scores, or browse the unified pages
of every ingested document.

Controls:
  tab      - Next field
  Enter    - Ask / Select
  n        - New question
  Esc      - Back
  ctrl+c   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, domain.NeedLLM|domain.NeedEmbedding|domain.NeedVectorStore, "")
	if err != nil {
		return err
	}
	return runTUIApp(cmd, a, messages.ViewMenu, driving.AskRequest{})
}

func runTUIApp(cmd *cobra.Command, a *wiring.App, start messages.ViewType, defaults driving.AskRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	ui, err := tui.NewApp(tui.NewPorts(a.Answer, a.Documents))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	ui.WithContext(cmd.Context()).WithDefaults(defaults).StartAt(start)

	if err := ui.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
