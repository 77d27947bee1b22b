package driving

import "context"

// IndexResult reports what an indexing run achieved. ChunksProcessed counts
// chunks actually embedded and upserted; after a mid-run collaborator
// failure it tells the caller where to resume, since per-chunk indexing is
// idempotent.
type IndexResult struct {
	// CollectionName is the collection that was written to.
	CollectionName string

	// ChunksProcessed is the number of chunks embedded and upserted.
	ChunksProcessed int

	// EmbeddingModel is the model that produced the vectors.
	EmbeddingModel string
}

// IndexingService embeds a document's chunk set and upserts it into a named
// vector collection.
type IndexingService interface {
	// IndexDocument loads the stored chunk set for documentName, embeds it
	// in batches and upserts into collection. An empty collection name
	// selects the document's default collection. Already-indexed batches
	// stay indexed on failure; the returned result carries the count
	// actually processed alongside the error.
	IndexDocument(ctx context.Context, documentName, collection string) (*IndexResult, error)
}
