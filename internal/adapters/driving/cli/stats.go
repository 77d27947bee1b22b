package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [collection]",
	Short: "Show record count and metric for one collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if vectorStore == nil {
		return errors.New("vector store not configured")
	}

	stats, err := vectorStore.Stats(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Collection: %s\n", stats.Name)
	cmd.Printf("Chunks:     %d\n", stats.Count)
	cmd.Printf("Metric:     %s\n", stats.Metric)
	return nil
}
