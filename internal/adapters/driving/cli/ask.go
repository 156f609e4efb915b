package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

var (
	askReference  string
	askDocID      int
	askCollection string
	askTopK       int
	askJSON       bool
	askTUI        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the manuals",
	Long: `Retrieves the chunks most similar to the question and generates an
answer grounded on them. With --reference the answer is also scored for
faithfulness, answer relevancy, context precision and context recall.

Without a question, or with --tui, an interactive form opens instead.

Examples:
  manualqa ask "What is the maximum operating pressure?"
  manualqa ask --doc-id 12 -k 6 "How do I bleed the pump?"
  manualqa ask --reference "10 bar" --json "What is the maximum pressure?"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askReference, "reference", "", "expected answer; enables evaluation")
	askCmd.Flags().IntVar(&askDocID, "doc-id", 0, "restrict retrieval to one document")
	askCmd.Flags().StringVar(&askCollection, "collection", "", "collection to query (default retrieval.collection)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default retrieval.top_k)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askTUI, "tui", false, "open the interactive form")
	rootCmd.AddCommand(askCmd)
}

func askRequest(cmd *cobra.Command, question string) driving.AskRequest {
	req := driving.AskRequest{
		Question:   question,
		Reference:  askReference,
		Collection: askCollection,
		TopK:       askTopK,
		Evaluate:   strings.TrimSpace(askReference) != "",
	}
	if cmd.Flags().Changed("doc-id") {
		id := askDocID
		req.FileID = &id
	}
	return req
}

func runAsk(cmd *cobra.Command, args []string) error {
	needs := domain.NeedLLM | domain.NeedEmbedding | domain.NeedVectorStore
	question := strings.TrimSpace(strings.Join(args, " "))

	if askTUI || question == "" {
		if !isTerminal(cmd.OutOrStdout()) {
			return errors.New("a question is required when output is not a terminal")
		}
		a, err := loadApp(cmd, needs, "")
		if err != nil {
			return err
		}
		return runTUIApp(cmd, a, messages.ViewAsk, askRequest(cmd, ""))
	}

	a, err := loadApp(cmd, needs, "")
	if err != nil {
		return err
	}
	if a.Answer == nil {
		return errors.New("answer service not configured")
	}

	resp, err := a.Answer.Ask(cmd.Context(), askRequest(cmd, question))
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printAnswer(cmd, resp, isTerminal(cmd.OutOrStdout()))
	return nil
}

func printAnswer(cmd *cobra.Command, resp *driving.AskResponse, styled bool) {
	if resp == nil || resp.Result == nil {
		cmd.Println("No answer.")
		return
	}

	answer := resp.Result.Answer
	if styled {
		if out, err := glamour.Render(answer, "dark"); err == nil {
			answer = strings.TrimRight(out, "\n")
		}
	}
	cmd.Println(answer)
	cmd.Println()

	if len(resp.Result.Documents) > 0 {
		cmd.Println("Sources:")
		for i, d := range resp.Result.Documents {
			cmd.Printf("  [%d] document %s, %s (%.3f)\n", i+1, d.Chunk.DocumentID, list.PageLabel(d.Chunk.Pages), d.Score)
		}
	}

	if resp.Scores != nil {
		cmd.Println()
		cmd.Println("Scores:")
		cmd.Printf("  faithfulness       %.3f\n", resp.Scores.Faithfulness)
		cmd.Printf("  answer relevancy   %.3f\n", resp.Scores.AnswerRelevancy)
		cmd.Printf("  context precision  %.3f\n", resp.Scores.ContextPrecision)
		cmd.Printf("  context recall     %.3f\n", resp.Scores.ContextRecall)
	}
	if resp.EvaluationError != "" {
		cmd.Printf("\nEvaluation failed: %s\n", resp.EvaluationError)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
