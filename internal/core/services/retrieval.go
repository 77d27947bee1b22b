package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DefaultTopK is the result count when the caller does not specify one.
const DefaultTopK = 5

// RetrievalService embeds queries and answers nearest-neighbour searches
// with normalized scores. Attribution fields are reconstructed entirely from
// the metadata stored alongside each vector - retrieval never re-reads the
// chunk store.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.VectorStore) *RetrievalService {
	return &RetrievalService{embedder: embedder, store: store}
}

// Retrieve returns up to topK chunks ranked ascending by normalized score.
func (s *RetrievalService) Retrieve(ctx context.Context, queryText, collection string, topK int) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: missing collection name", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	logger.Debug("Query: %q, collection: %s, top_k: %d", queryText, collection, topK)

	embedding, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	matches, err := s.store.Query(ctx, collection, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", collection, err)
	}
	logger.Debug("Raw matches: %d", len(matches))

	metric, err := s.store.Metric(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("collection metric for %q: %w", collection, err)
	}

	results := make([]domain.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, resultFromMatch(m, metric))
	}

	// Lower score = more similar, across every metric. Ties break by
	// ascending chunk number for determinism.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].ChunkNumber < results[j].ChunkNumber
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	logger.Info("Retrieved %d results from %s", len(results), collection)
	return results, nil
}

// resultFromMatch normalizes the raw score and reconstructs attribution
// fields from the stored metadata record.
func resultFromMatch(m driven.QueryMatch, metric driven.Metric) domain.RetrievalResult {
	return domain.RetrievalResult{
		ChunkID:        metaString(m.Metadata, "chunk_id", m.ID),
		Text:           m.Text,
		Score:          NormalizeScore(m.Score, metric),
		SourceFilename: metaString(m.Metadata, "source_filename", "unknown"),
		DocumentName:   metaString(m.Metadata, "document_name", "unknown"),
		ChunkNumber:    metaInt(m.Metadata, "chunk_number"),
		Topic:          metaString(m.Metadata, "topic", ""),
		TokenCount:     metaInt(m.Metadata, "token_count"),
	}
}

// NormalizeScore maps a raw metric value onto the single pipeline-wide
// convention: lower score = more similar. L2 and cosine distances already
// follow it; inner product ranks the other way and is negated. Adding a new
// store metric is a one-line mapping change here.
func NormalizeScore(raw float64, metric driven.Metric) float64 {
	switch metric {
	case driven.MetricInnerProduct:
		return -raw
	default:
		return raw
	}
}

// metaString reads a string metadata field, tolerating absence.
func metaString(meta map[string]any, key, fallback string) string {
	if meta == nil {
		return fallback
	}
	if v, ok := meta[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// metaInt reads an integer metadata field. JSON transports deliver numbers
// as float64, so both forms are accepted.
func metaInt(meta map[string]any, key string) int {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
