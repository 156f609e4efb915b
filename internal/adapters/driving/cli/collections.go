package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	buildDryRun    bool
	buildDocPrefix string
	buildDocs      []string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build vector collections from unified pages",
	Long: `Builds one collection for every combination of embedding model, chunk
size and chunk overlap in collections.* of the config. Each collection is
recreated from scratch. A failing combination does not stop the others.

Examples:
  manualqa build --dry-run
  manualqa build --doc-prefix 12`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections in the vector store",
	Args:  cobra.NoArgs,
	RunE:  runCollections,
}

func init() {
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "print the collections that would be built")
	buildCmd.Flags().StringVar(&buildDocPrefix, "doc-prefix", "", "only load documents whose id starts with this prefix")
	buildCmd.Flags().StringSliceVar(&buildDocs, "docs", nil, "document ids to load (default: every unified document)")
	rootCmd.AddCommand(buildCmd, collectionsCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	needs := domain.NeedEmbedding | domain.NeedVectorStore
	if buildDryRun {
		needs = 0
	}
	a, err := loadApp(cmd, needs, "build")
	if err != nil {
		return err
	}
	if a.Collections == nil {
		return errors.New("collection service not configured")
	}

	plan, err := a.Collections.Plan(cmd.Context())
	if err != nil {
		return err
	}
	if len(buildDocs) > 0 {
		plan.DocumentIDs = buildDocs
	}
	if buildDocPrefix != "" {
		plan.DocumentPrefix = buildDocPrefix
	}

	if buildDryRun {
		if err := plan.ValidateConfigs(); err != nil {
			return err
		}
		cmd.Printf("%d documents selected\n", len(plan.Selected()))
		for _, cfg := range plan.Configs() {
			cmd.Printf("  %s  (model %s, chunk %s, overlap %d)\n",
				cfg.Name, cfg.EmbeddingModel, cfg.ChunkSize, cfg.ChunkOverlap)
		}
		return nil
	}

	report, err := a.Collections.Build(cmd.Context(), plan)
	if report != nil {
		cmd.Printf("Loaded %d units\n", report.Units)
		for _, o := range report.Outcomes {
			if o.Err != nil {
				cmd.Printf("  %s: FAILED: %v\n", o.Config.Name, o.Err)
				continue
			}
			cmd.Printf("  %s: %d chunks\n", o.Config.Name, o.Chunks)
		}
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if report == nil {
		return nil
	}
	if failed := len(report.Outcomes) - report.Succeeded(); failed > 0 {
		return fmt.Errorf("%d of %d collections failed", failed, len(report.Outcomes))
	}
	return nil
}

func runCollections(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd, domain.NeedVectorStore, "")
	if err != nil {
		return err
	}
	if a.Collections == nil {
		return errors.New("collection service not configured")
	}

	names, err := a.Collections.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println("No collections. Run 'manualqa build' first.")
		return nil
	}
	for _, n := range names {
		cmd.Println(n)
	}
	return nil
}
