// Package cli provides the command-line interface for docquery.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands depend on; wired by the composition root before
// Execute.
var (
	chunkingService  driving.ChunkingService
	indexingService  driving.IndexingService
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	chunkStore       driven.ChunkSetStore
	vectorStore      driven.VectorStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Chunk, index and query documents with attributed answers",
	Long: `docquery turns documents into token-bounded semantic chunks, indexes them
into a vector store and answers questions grounded strictly in the retrieved
chunks, with per-chunk source citations.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Services bundles everything the commands need.
type Services struct {
	Chunking   driving.ChunkingService
	Indexing   driving.IndexingService
	Retrieval  driving.RetrievalService
	Answer     driving.AnswerService
	ChunkStore driven.ChunkSetStore
	Vectors    driven.VectorStore
}

// SetServices wires the service implementations into the commands.
func SetServices(s Services) {
	chunkingService = s.Chunking
	indexingService = s.Indexing
	retrievalService = s.Retrieval
	answerService = s.Answer
	chunkStore = s.ChunkStore
	vectorStore = s.Vectors
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
