package driven

import "context"

// Metric identifies the distance convention a collection's raw scores use.
// The retriever normalizes every metric to "lower score = more similar", so
// downstream consumers never need to know which one the store picked.
type Metric string

const (
	// MetricL2 is squared euclidean distance: already lower-is-closer.
	MetricL2 Metric = "l2"

	// MetricCosine is cosine distance (1 - similarity): lower-is-closer.
	MetricCosine Metric = "cosine"

	// MetricInnerProduct is raw inner product: HIGHER is closer, and must be
	// negated during normalization.
	MetricInnerProduct Metric = "ip"
)

// VectorRecord is one (id, vector, text, metadata) tuple for upsert.
// Metadata mirrors the chunk fields exactly - no renaming, no loss.
type VectorRecord struct {
	// ID is the chunk_id and the collection's primary key: upserting the
	// same ID twice overwrites rather than duplicates.
	ID string

	// Embedding is the vector for this record.
	Embedding []float32

	// Text is the chunk content.
	Text string

	// Metadata carries every chunk field needed to reconstruct attribution
	// at retrieval time.
	Metadata map[string]any
}

// QueryMatch is one raw nearest-neighbour hit before normalization.
type QueryMatch struct {
	// ID is the matched record's chunk_id.
	ID string

	// Score is the raw metric value as the store reported it.
	Score float64

	// Text is the stored chunk content.
	Text string

	// Metadata is the stored metadata record.
	Metadata map[string]any
}

// CollectionStats describes one collection.
type CollectionStats struct {
	// Name is the collection name.
	Name string

	// Count is the number of records.
	Count int

	// Metric is the collection's distance convention.
	Metric Metric
}

// VectorStore is the storage collaborator: a black box accepting
// (id, vector, text, metadata) tuples and answering k-nearest-neighbour
// queries. Conflicting writes are serialized internally by the store.
//
// Implementations may include:
//   - Chroma (HTTP API)
//   - In-memory brute-force store (tests, small corpora)
type VectorStore interface {
	// Upsert writes records into the named collection, creating it if
	// needed. Records with an existing ID are overwritten.
	Upsert(ctx context.Context, collection string, records []VectorRecord) error

	// Query returns up to k nearest neighbours of the embedding. Fewer than
	// k records in the collection returns all of them, not an error.
	// A missing collection returns domain.ErrCollectionNotFound.
	Query(ctx context.Context, collection string, embedding []float32, k int) ([]QueryMatch, error)

	// Metric reports the distance convention of the named collection.
	Metric(ctx context.Context, collection string) (Metric, error)

	// ListCollections returns stats for every collection.
	ListCollections(ctx context.Context) ([]CollectionStats, error)

	// Stats returns stats for one collection, or domain.ErrCollectionNotFound.
	Stats(ctx context.Context, collection string) (*CollectionStats, error)

	// Close releases resources.
	Close() error
}
