package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

var (
	queryCollection string
	queryTopK       int
	queryJSON       bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the most similar chunks for a query",
	Long: `Embeds the query text and returns the nearest chunks from a collection,
ranked by normalized score (lower = more similar) with full source
attribution.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCollection, "collection", "c", "", "collection to search (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default 5)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.Retrieve(context.Background(), args[0], queryCollection, queryTopK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputQueryTable(cmd, results)
}

func outputQueryTable(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, r := range results {
		cmd.Printf("  [%d] %s (score %.4f)\n", r.Rank, domain.SourceDisplay(r.SourceFilename, r.ChunkNumber), r.Score)
		if r.Topic != "" {
			cmd.Printf("      Topic: %s\n", r.Topic)
		}
		cmd.Printf("      %s\n", snippet(r.Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates text to at most n bytes on a rune boundary.
func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := n
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
