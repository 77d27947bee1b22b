package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/pages"
)

var (
	chunkName string
	chunkJSON bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [path]",
	Short: "Split a document into token-bounded chunks",
	Long: `Reads a document (a single file, or a directory of extracted pageN.md
files combined in page order) and splits it into semantically coherent
chunks within the configured token bounds. The resulting chunk set is
persisted and ready for indexing.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVar(&chunkName, "name", "", "attribution filename (default: file or directory name)")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output the chunk set as JSON")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	doc, err := pages.Load(args[0], chunkName)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	set, err := chunkingService.ChunkDocument(context.Background(), doc.Filename, doc.CombinedText)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if chunkJSON {
		return outputChunkSetJSON(cmd, set)
	}
	return outputChunkSetTable(cmd, set)
}

func outputChunkSetJSON(cmd *cobra.Command, set *domain.ChunkSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunk set: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChunkSetTable(cmd *cobra.Command, set *domain.ChunkSet) error {
	cmd.Printf("Document: %s (%s, %s tokens)\n", set.Info.DocumentName, set.Info.Method, set.Info.TokenRange)
	cmd.Printf("Chunks: %d\n", set.Info.TotalChunks)
	cmd.Println()

	for _, c := range set.Chunks {
		flag := ""
		if c.OutOfBounds {
			flag = "  [out of bounds]"
		}
		cmd.Printf("  [%03d] %4d tokens%s\n", c.Number, c.TokenCount, flag)
		if c.Topic != "" {
			cmd.Printf("        Topic: %s\n", c.Topic)
		}
	}
	return nil
}
