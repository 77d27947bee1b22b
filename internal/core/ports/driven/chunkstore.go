package driven

import (
	"context"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

// ChunkSetStore persists documents' chunk sets.
// Backed by SQLite for durable storage.
//
// Saves are all-or-nothing per document: either every chunk of a set is
// written, or none are, so a reader can never observe broken numbering.
// Saving a document that already has a chunk set replaces the old
// generation entirely.
type ChunkSetStore interface {
	// SaveChunkSet stores a document's chunk set atomically, replacing any
	// previous generation for the same document name.
	SaveChunkSet(ctx context.Context, set *domain.ChunkSet) error

	// GetChunkSet retrieves the chunk set for a document, or
	// domain.ErrNotFound.
	GetChunkSet(ctx context.Context, documentName string) (*domain.ChunkSet, error)

	// ListChunkSets returns the DocumentInfo of every stored set.
	ListChunkSets(ctx context.Context) ([]domain.DocumentInfo, error)

	// DeleteChunkSet removes a document's chunk set.
	DeleteChunkSet(ctx context.Context, documentName string) error

	// Close releases resources.
	Close() error
}
