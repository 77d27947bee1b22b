package driving

import (
	"context"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

// ChunkingService turns a document's combined text into a persisted,
// size-valid chunk set with stable identifiers.
type ChunkingService interface {
	// ChunkDocument plans boundaries for the combined text, enforces the
	// token-size contract, assigns deterministic IDs and persists the
	// resulting set atomically. filename is the original file name
	// (extension included); the document name is derived from it.
	ChunkDocument(ctx context.Context, filename, combinedText string) (*domain.ChunkSet, error)
}
