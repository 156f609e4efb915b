// Package cli is the manualqa command-line interface.
package cli

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/wiring"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	configPath string
	verbose    bool
	logFile    string
)

// app is the service graph of the running command. Tests preset it.
var (
	app     *wiring.App
	ownsApp bool
)

var rootCmd = &cobra.Command{
	Use:   "manualqa",
	Short: "Answer questions from PDF equipment manuals",
	Long: `manualqa turns a directory of PDF manuals into searchable knowledge.

Ingestion extracts every page (text layer first, OCR as fallback), strips
boilerplate, describes page images with a vision model and fuses both into
one text per page. Build then chunks and embeds the pages into vector
collections, and ask answers questions grounded on the retrieved chunks.

Typical run:
  manualqa check
  manualqa ingest
  manualqa build
  manualqa ask "How do I reset the controller?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if logFile != "" {
			return logger.SetFile(logFile)
		}
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.manualqa/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file (default {logs}/{command}.log for stage commands)")
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeApp(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// loadApp returns the service graph, building it on first use with the
// external services the command needs. A non-empty logName tees the log
// to {logs}/{logName}.log unless --log-file was given.
func loadApp(cmd *cobra.Command, needs domain.Needs, logName string) (*wiring.App, error) {
	if app != nil {
		return app, nil
	}
	a, err := wiring.Build(cmd.Context(), wiring.Options{ConfigPath: configPath, Needs: needs})
	if err != nil {
		return nil, err
	}
	app = a
	ownsApp = true

	if logFile == "" && logName != "" && a.Config.Paths.Logs != "" {
		if err := logger.SetFile(filepath.Join(a.Config.Paths.Logs, logName+".log")); err != nil {
			logger.Warn("log file disabled: %v", err)
		}
	}
	return a, nil
}

func closeApp() error {
	var errs []error
	if ownsApp && app != nil {
		errs = append(errs, app.Close())
		app = nil
		ownsApp = false
	}
	errs = append(errs, logger.CloseFile())
	return errors.Join(errs...)
}
