package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.IndexingService = (*IndexingService)(nil)

// DefaultBatchSize bounds how many chunks go to the embedding collaborator
// per call.
const DefaultBatchSize = 100

// IndexingService embeds chunk sets and upserts them into vector
// collections. Embedding batches are dispatched concurrently up to the
// collaborator's rate limit, then reassembled in original chunk order before
// persistence so the numbering invariant survives. Upserts are idempotent
// per chunk_id: already-indexed batches stay indexed on failure and the
// caller learns how many chunks made it, so retry-by-id is always safe.
type IndexingService struct {
	chunkStore driven.ChunkSetStore
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	limiter    *rate.Limiter
	batchSize  int
}

// IndexingOption configures the indexing service.
type IndexingOption func(*IndexingService)

// WithBatchSize sets the embedding batch size.
func WithBatchSize(size int) IndexingOption {
	return func(s *IndexingService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithRateLimit bounds embedding batch dispatch to n batches per second.
func WithRateLimit(perSecond float64) IndexingOption {
	return func(s *IndexingService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(
	chunkStore driven.ChunkSetStore,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	opts ...IndexingOption,
) *IndexingService {
	s := &IndexingService{
		chunkStore: chunkStore,
		embedder:   embedder,
		store:      store,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexDocument loads the stored chunk set, embeds it in batches and upserts
// into the collection.
func (s *IndexingService) IndexDocument(ctx context.Context, documentName, collection string) (*driving.IndexResult, error) {
	logger.Section("Embedding & Indexing")

	if documentName == "" {
		return nil, fmt.Errorf("%w: missing document name", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	set, err := s.chunkStore.GetChunkSet(ctx, documentName)
	if err != nil {
		return nil, fmt.Errorf("load chunk set for %q: %w", documentName, err)
	}

	if collection == "" {
		collection = domain.DefaultCollectionName(documentName)
	}
	logger.Info("Indexing %d chunks from %s into collection %s", len(set.Chunks), documentName, collection)

	result := &driving.IndexResult{
		CollectionName: collection,
		EmbeddingModel: s.embedder.ModelName(),
	}

	batches := batchChunks(set.Chunks, s.batchSize)
	vectors, failedAt, embedErr := s.embedBatches(ctx, batches)

	// Upsert every fully embedded batch prefix in original chunk order;
	// partial progress is kept so the caller can retry only the remainder.
	for i, batch := range batches {
		if i >= failedAt {
			break
		}
		records := buildRecords(set, batch, vectors[i])
		if err := s.store.Upsert(ctx, collection, records); err != nil {
			return result, fmt.Errorf("upsert batch %d: %w", i+1, err)
		}
		result.ChunksProcessed += len(batch)
		logger.Debug("Upserted batch %d/%d (%d chunks)", i+1, len(batches), len(batch))
	}

	if embedErr != nil {
		return result, fmt.Errorf("embed batch %d: %w: %v", failedAt+1, domain.ErrEmbeddingUnavailable, embedErr)
	}

	logger.Info("Indexed %d/%d chunks into %s", result.ChunksProcessed, len(set.Chunks), collection)
	return result, nil
}

// embedBatches dispatches embedding calls concurrently, rate limited, and
// returns the vectors per batch plus the index of the first failed batch
// (len(batches) when all succeeded).
func (s *IndexingService) embedBatches(ctx context.Context, batches [][]domain.Chunk) ([][][]float32, int, error) {
	vectors := make([][][]float32, len(batches))
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		if err := s.limiter.Wait(ctx); err != nil {
			errs[i] = err
			break
		}

		wg.Add(1)
		go func(i int, batch []domain.Chunk) {
			defer wg.Done()
			texts := make([]string, len(batch))
			for j, c := range batch {
				texts[j] = c.Content
			}
			vs, err := s.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				errs[i] = err
				return
			}
			if len(vs) != len(batch) {
				errs[i] = fmt.Errorf("embedder returned %d vectors for %d texts", len(vs), len(batch))
				return
			}
			vectors[i] = vs
		}(i, batch)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return vectors, i, err
		}
	}
	return vectors, len(batches), nil
}

// batchChunks splits chunks into bounded batches without ever separating a
// chunk from its metadata.
func batchChunks(chunks []domain.Chunk, size int) [][]domain.Chunk {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]domain.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// buildRecords mirrors the chunk fields into vector records exactly - no
// field renaming, no loss.
func buildRecords(set *domain.ChunkSet, batch []domain.Chunk, vectors [][]float32) []driven.VectorRecord {
	records := make([]driven.VectorRecord, len(batch))
	for i, c := range batch {
		records[i] = driven.VectorRecord{
			ID:        c.ID,
			Embedding: vectors[i],
			Text:      c.Content,
			Metadata: map[string]any{
				"chunk_id":        c.ID,
				"chunk_number":    c.Number,
				"token_count":     c.TokenCount,
				"source_filename": c.Source.Filename,
				"document_name":   c.Source.DocumentName,
				"topic":           c.Topic,
				"reasoning":       c.Reasoning,
				"created_at":      c.CreatedAt.Format(time.RFC3339),
				"chunking_method": string(set.Info.Method),
			},
		}
	}
	return records
}
