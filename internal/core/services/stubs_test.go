package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// stubCounter counts whitespace-separated words as tokens. Deterministic and
// cheap, which is all the pipeline contracts require.
type stubCounter struct {
	err error
}

func (c *stubCounter) Count(text string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return len(strings.Fields(text)), nil
}

func (c *stubCounter) Encoding() string { return "words" }

// stubSuggester returns a scripted suggestion or error.
type stubSuggester struct {
	suggestion *domain.BoundarySuggestion
	err        error
	calls      int
}

func (s *stubSuggester) SuggestBoundaries(_ context.Context, _ string) (*domain.BoundarySuggestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.suggestion, nil
}

func (s *stubSuggester) ModelName() string { return "stub-suggester" }
func (s *stubSuggester) Close() error      { return nil }

// stubChunkStore keeps chunk sets in memory.
type stubChunkStore struct {
	mu      sync.Mutex
	sets    map[string]*domain.ChunkSet
	saveErr error
}

func newStubChunkStore() *stubChunkStore {
	return &stubChunkStore{sets: make(map[string]*domain.ChunkSet)}
}

func (s *stubChunkStore) SaveChunkSet(_ context.Context, set *domain.ChunkSet) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.Info.DocumentName] = set
	return nil
}

func (s *stubChunkStore) GetChunkSet(_ context.Context, documentName string) (*domain.ChunkSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[documentName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return set, nil
}

func (s *stubChunkStore) ListChunkSets(_ context.Context) ([]domain.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]domain.DocumentInfo, 0, len(s.sets))
	for _, set := range s.sets {
		infos = append(infos, set.Info)
	}
	return infos, nil
}

func (s *stubChunkStore) DeleteChunkSet(_ context.Context, documentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, documentName)
	return nil
}

func (s *stubChunkStore) Close() error { return nil }

// stubEmbedder returns fixed-dimension vectors derived from text length.
// failAfter, when positive, fails every EmbedBatch call after that many
// successful ones. failOn, when set, fails any batch containing that text,
// which keeps failure deterministic under concurrent dispatch.
type stubEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	failAfter  int
	failOn     string
	embedErr   error
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	calls := e.batchCalls
	e.mu.Unlock()

	if e.embedErr != nil {
		return nil, e.embedErr
	}
	if e.failAfter > 0 && calls > e.failAfter {
		return nil, errors.New("embedder overloaded")
	}
	if e.failOn != "" {
		for _, t := range texts {
			if strings.Contains(t, e.failOn) {
				return nil, errors.New("embedder rejected batch")
			}
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := e.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return 3 }
func (e *stubEmbedder) ModelName() string            { return "stub-embedder" }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

// stubVectorStore records upserts and serves scripted query matches.
type stubVectorStore struct {
	mu          sync.Mutex
	records     map[string]map[string]driven.VectorRecord
	metric      driven.Metric
	matches     []driven.QueryMatch
	queryErr    error
	upsertErr   error
	upsertCalls int
}

func newStubVectorStore() *stubVectorStore {
	return &stubVectorStore{
		records: make(map[string]map[string]driven.VectorRecord),
		metric:  driven.MetricCosine,
	}
}

func (s *stubVectorStore) Upsert(_ context.Context, collection string, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	coll, ok := s.records[collection]
	if !ok {
		coll = make(map[string]driven.VectorRecord)
		s.records[collection] = coll
	}
	for _, r := range records {
		coll[r.ID] = r
	}
	return nil
}

func (s *stubVectorStore) Query(_ context.Context, collection string, _ []float32, k int) ([]driven.QueryMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.matches) <= k {
		return s.matches, nil
	}
	return s.matches[:k], nil
}

func (s *stubVectorStore) Metric(_ context.Context, _ string) (driven.Metric, error) {
	return s.metric, nil
}

func (s *stubVectorStore) ListCollections(_ context.Context) ([]driven.CollectionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats []driven.CollectionStats
	for name, coll := range s.records {
		stats = append(stats, driven.CollectionStats{Name: name, Count: len(coll), Metric: s.metric})
	}
	return stats, nil
}

func (s *stubVectorStore) Stats(_ context.Context, collection string) (*driven.CollectionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.records[collection]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	return &driven.CollectionStats{Name: collection, Count: len(coll), Metric: s.metric}, nil
}

func (s *stubVectorStore) Close() error { return nil }

// stubSynthesis returns a scripted answer.
type stubSynthesis struct {
	answer   string
	err      error
	calls    int
	lastUser string
}

func (s *stubSynthesis) Chat(_ context.Context, messages []driven.ChatMessage) (string, error) {
	s.calls++
	for _, m := range messages {
		if m.Role == "user" {
			s.lastUser = m.Content
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubSynthesis) ModelName() string            { return "stub-synthesis" }
func (s *stubSynthesis) Ping(_ context.Context) error { return nil }
func (s *stubSynthesis) Close() error                 { return nil }

// stubRetrieval serves scripted retrieval results to the answer service.
type stubRetrieval struct {
	results []domain.RetrievalResult
	err     error
}

func (s *stubRetrieval) Retrieve(_ context.Context, _, _ string, topK int) ([]domain.RetrievalResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) <= topK {
		return s.results, nil
	}
	return s.results[:topK], nil
}
