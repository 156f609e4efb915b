package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or initialise configuration",
	Long: `Settings come from the config file (default ~/.manualqa/config.toml),
with API keys and service URLs taken from the environment or a .env file.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective settings to the config file",
	Long: `Write the effective settings (defaults merged with any existing file)
to the config file so they can be edited. API keys are never written.`,
	Args: cobra.NoArgs,
	RunE: runSettingsInit,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingsService skips the service graph so a broken config can still be shown.
func settingsService() (driving.SettingsService, error) {
	if app != nil && app.Settings != nil {
		return app.Settings, nil
	}
	store, err := configfile.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return services.NewSettingsService(store), nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	s, err := svc.Get()
	if err != nil {
		return err
	}

	cmd.Println("Paths:")
	cmd.Printf("  data dir:    %s\n", s.Paths.DataDir)
	cmd.Printf("  raw:         %s\n", s.Paths.Raw)
	cmd.Printf("  unified:     %s\n", s.Paths.Unified)
	cmd.Printf("  metadata:    %s\n", s.Paths.MetadataFile)
	cmd.Printf("  logs:        %s\n", s.Paths.Logs)

	cmd.Println("\nModels:")
	printModel(cmd, "llm", s.LLM)
	printModel(cmd, "vision", s.Vision)
	cmd.Printf("  embedding:   %s (key: %s)\n", s.Embedding.Provider.Description(), keyStatus(s.Embedding.Provider, s.Embedding.APIKey))

	cmd.Println("\nVector store:")
	cmd.Printf("  backend:     %s\n", s.VectorStore.Backend)
	switch s.VectorStore.Backend {
	case domain.VectorBackendSQLite:
		cmd.Printf("  path:        %s\n", s.VectorStore.Path)
	case domain.VectorBackendQdrant, domain.VectorBackendRedis:
		cmd.Printf("  url:         %s\n", valueOr(s.VectorStore.URL, "(not set)"))
	}

	cmd.Println("\nExtraction:")
	cmd.Printf("  pattern:     %s\n", s.Extraction.Pattern)
	cmd.Printf("  ocr:         %s at %d dpi\n", s.Extraction.OCRLanguage, s.Extraction.RenderDPI)
	cmd.Printf("  vision:      every %s, %d at a time\n", s.Throttle.VisionInterval, s.Throttle.VisionConcurrency)

	cmd.Println("\nCollections:")
	plan := s.Collections.Plan
	sizes := make([]string, 0, len(plan.ChunkSizes))
	for _, c := range plan.ChunkSizes {
		sizes = append(sizes, c.String())
	}
	cmd.Printf("  prefix:      %s\n", plan.Prefix)
	cmd.Printf("  models:      %s\n", strings.Join(plan.EmbeddingModels, ", "))
	cmd.Printf("  chunk sizes: %s\n", strings.Join(sizes, ", "))
	cmd.Printf("  overlaps:    %v\n", plan.Overlaps())
	cmd.Printf("  configs:     %d\n", len(plan.Configs()))

	cmd.Println("\nRetrieval:")
	cmd.Printf("  collection:  %s\n", valueOr(s.Retrieval.Collection, "(not set)"))
	cmd.Printf("  model:       %s\n", s.Retrieval.EmbeddingModel)
	cmd.Printf("  top k:       %d\n", s.Retrieval.TopK)

	if err := svc.Validate(s); err != nil {
		cmd.Printf("\nInvalid: %v\n", err)
	}
	return nil
}

func runSettingsInit(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	s, err := svc.Get()
	if err != nil {
		return err
	}
	if err := svc.Validate(s); err != nil {
		return err
	}
	if err := svc.Save(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Settings saved.")
	return nil
}

func printModel(cmd *cobra.Command, name string, m domain.ModelSettings) {
	cmd.Printf("  %-12s %s %s (key: %s)\n", name+":", m.Provider.Description(), m.Model, keyStatus(m.Provider, m.APIKey))
}

func keyStatus(p domain.AIProvider, key string) string {
	if !p.RequiresAPIKey() {
		return "not required"
	}
	if key == "" {
		return "missing, set " + p.APIKeyEnv()
	}
	return maskAPIKey(key)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
