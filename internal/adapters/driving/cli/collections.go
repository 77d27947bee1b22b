package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List vector collections and chunked documents",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	if vectorStore == nil {
		return errors.New("vector store not configured")
	}

	ctx := context.Background()

	stats, err := vectorStore.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections failed: %w", err)
	}
	if len(stats) == 0 {
		cmd.Println("No collections found.")
	} else {
		cmd.Println("Collections:")
		for _, s := range stats {
			cmd.Printf("  %-30s %6d chunks  (%s)\n", s.Name, s.Count, s.Metric)
		}
	}

	if chunkStore == nil {
		return nil
	}

	docs, err := chunkStore.ListChunkSets(ctx)
	if err != nil {
		return fmt.Errorf("list documents failed: %w", err)
	}
	if len(docs) > 0 {
		cmd.Println()
		cmd.Println("Chunked documents:")
		for _, d := range docs {
			cmd.Printf("  %-30s %4d chunks  %s (%s)\n", d.DocumentName, d.TotalChunks, d.Method, d.TokenRange)
		}
	}
	return nil
}
