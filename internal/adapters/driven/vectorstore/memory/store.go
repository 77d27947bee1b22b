// Package memory provides an in-memory vector store for tests and small
// corpora.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps collections in memory and answers queries by brute-force scan.
// Scores follow the collection metric's native convention; normalization is
// the retriever's job.
type Store struct {
	mu          sync.RWMutex
	metric      driven.Metric
	collections map[string]map[string]driven.VectorRecord
}

// NewStore creates an empty store whose collections use the given metric,
// defaulting to cosine distance.
func NewStore(metric driven.Metric) *Store {
	if metric == "" {
		metric = driven.MetricCosine
	}
	return &Store{
		metric:      metric,
		collections: make(map[string]map[string]driven.VectorRecord),
	}
}

// Upsert writes records into the named collection, creating it if needed.
func (s *Store) Upsert(_ context.Context, collection string, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]driven.VectorRecord, len(records))
		s.collections[collection] = coll
	}
	for _, r := range records {
		coll[r.ID] = r
	}
	return nil
}

// Query returns up to k nearest neighbours by full scan.
func (s *Store) Query(_ context.Context, collection string, embedding []float32, k int) ([]driven.QueryMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}

	matches := make([]driven.QueryMatch, 0, len(coll))
	for _, r := range coll {
		matches = append(matches, driven.QueryMatch{
			ID:       r.ID,
			Score:    s.score(embedding, r.Embedding),
			Text:     r.Text,
			Metadata: r.Metadata,
		})
	}

	// Native ordering: distances ascend, inner products descend.
	sort.Slice(matches, func(i, j int) bool {
		if s.metric == driven.MetricInnerProduct {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Score < matches[j].Score
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Metric reports the store-wide distance convention.
func (s *Store) Metric(_ context.Context, collection string) (driven.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.collections[collection]; !ok {
		return "", domain.ErrCollectionNotFound
	}
	return s.metric, nil
}

// ListCollections returns stats for every collection, sorted by name.
func (s *Store) ListCollections(_ context.Context) ([]driven.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]driven.CollectionStats, 0, len(s.collections))
	for name, coll := range s.collections {
		stats = append(stats, driven.CollectionStats{
			Name:   name,
			Count:  len(coll),
			Metric: s.metric,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}

// Stats returns stats for one collection.
func (s *Store) Stats(_ context.Context, collection string) (*driven.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	return &driven.CollectionStats{
		Name:   collection,
		Count:  len(coll),
		Metric: s.metric,
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// score computes the raw metric value between two vectors. Dimension
// mismatches score as far as possible instead of panicking.
func (s *Store) score(a, b []float32) float64 {
	if len(a) != len(b) {
		if s.metric == driven.MetricInnerProduct {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	switch s.metric {
	case driven.MetricInnerProduct:
		return dot(a, b)
	case driven.MetricL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return sum
	default: // cosine distance
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot(a, b)/(na*nb)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	return math.Sqrt(dot(a, a))
}
