package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askCollection  string
	askTopK        int
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question answered strictly from indexed chunks",
	Long: `Retrieves the most relevant chunks for the question and synthesizes an
answer grounded only in them. Every citation in the answer is cross-checked
against the retrieved chunks; sources that were not actually retrieved are
never attributed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection to search (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of context chunks (default 5)")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context chunks")
	askCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	answer, err := answerService.Answer(context.Background(), args[0], askCollection, askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.FinalAnswer)

	if len(answer.SourcesUsed) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, ref := range answer.SourcesUsed {
			cmd.Printf("  - %s (score %.4f)\n", ref.Display, ref.Score)
		}
	}

	if askShowContext && len(answer.RetrievedContext) > 0 {
		cmd.Println()
		cmd.Println("Retrieved context:")
		for _, entry := range answer.RetrievedContext {
			cmd.Printf("  %s\n", entry.Label)
			cmd.Printf("  %s\n\n", snippet(entry.Text, 300))
		}
	}
	return nil
}
