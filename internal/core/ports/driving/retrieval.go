package driving

import (
	"context"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

// RetrievalService answers nearest-neighbour queries over an indexed
// collection, with scores normalized so lower always means more similar.
type RetrievalService interface {
	// Retrieve embeds queryText, fetches up to topK nearest chunks from
	// collection and returns them ranked ascending by normalized score,
	// ties broken by ascending chunk number. A collection holding fewer
	// than topK chunks returns all of them; an empty collection returns an
	// empty slice; a missing one returns domain.ErrCollectionNotFound.
	Retrieve(ctx context.Context, queryText, collection string, topK int) ([]domain.RetrievalResult, error)
}
