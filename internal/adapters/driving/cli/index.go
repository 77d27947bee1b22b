package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCollection string

var indexCmd = &cobra.Command{
	Use:   "index [document-name]",
	Short: "Embed a chunked document into a vector collection",
	Long: `Loads the stored chunk set of a document, embeds every chunk and upserts
the vectors into a collection. Indexing the same document again overwrites
the previous records instead of duplicating them.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexCollection, "collection", "c", "",
		"target collection (default: <document>_embeddings)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexingService == nil {
		return errors.New("indexing service not configured")
	}

	result, err := indexingService.IndexDocument(context.Background(), args[0], indexCollection)
	if err != nil {
		if result != nil && result.ChunksProcessed > 0 {
			cmd.Printf("Indexed %d chunks into %s before failing; rerun to retry the rest.\n",
				result.ChunksProcessed, result.CollectionName)
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks into %s (model: %s)\n",
		result.ChunksProcessed, result.CollectionName, result.EmbeddingModel)
	return nil
}
