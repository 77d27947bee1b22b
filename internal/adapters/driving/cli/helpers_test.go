package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driving"
)

// setupTestServices wires stub services into the commands and returns a
// cleanup that restores the previous wiring.
func setupTestServices() func() {
	prev := Services{
		Chunking:   chunkingService,
		Indexing:   indexingService,
		Retrieval:  retrievalService,
		Answer:     answerService,
		ChunkStore: chunkStore,
		Vectors:    vectorStore,
	}
	SetServices(Services{
		Chunking:   &fakeChunking{},
		Indexing:   &fakeIndexing{},
		Retrieval:  &fakeRetrieval{},
		Answer:     &fakeAnswer{},
		ChunkStore: &fakeChunkStore{},
		Vectors:    &fakeVectorStore{},
	})
	return func() {
		SetServices(prev)
	}
}

type fakeChunking struct{}

func (f *fakeChunking) ChunkDocument(_ context.Context, filename, _ string) (*domain.ChunkSet, error) {
	return &domain.ChunkSet{
		ID: "set-1",
		Info: domain.DocumentInfo{
			Filename:     filename,
			DocumentName: "report",
			TotalChunks:  2,
			Method:       domain.ChunkingSemantic,
			TokenRange:   "300-800",
		},
		Chunks: []domain.Chunk{
			{ID: "report_chunk_001", Number: 1, Content: "first chunk", TokenCount: 412, Topic: "Introduction"},
			{ID: "report_chunk_002", Number: 2, Content: "second chunk", TokenCount: 377, Topic: "Findings"},
		},
		CreatedAt: time.Now(),
	}, nil
}

type fakeIndexing struct{}

func (f *fakeIndexing) IndexDocument(_ context.Context, documentName, collection string) (*driving.IndexResult, error) {
	if collection == "" {
		collection = domain.DefaultCollectionName(documentName)
	}
	return &driving.IndexResult{
		CollectionName:  collection,
		ChunksProcessed: 2,
		EmbeddingModel:  "nomic-embed-text",
	}, nil
}

type fakeRetrieval struct{}

func (f *fakeRetrieval) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.RetrievalResult, error) {
	return []domain.RetrievalResult{
		{
			Rank:           1,
			ChunkID:        "report_chunk_002",
			Text:           "second chunk body",
			Score:          0.12,
			SourceFilename: "report.pdf",
			DocumentName:   "report",
			ChunkNumber:    2,
			Topic:          "Findings",
			TokenCount:     377,
		},
	}, nil
}

type fakeAnswer struct{}

func (f *fakeAnswer) Answer(_ context.Context, _, _ string, _ int) (*domain.Answer, error) {
	return &domain.Answer{
		FinalAnswer: "Revenue grew 12% year over year [Source: report.pdf | chunk 2].",
		SourcesUsed: []domain.SourceRef{
			{
				Display:        domain.SourceDisplay("report.pdf", 2),
				SourceFilename: "report.pdf",
				ChunkNumber:    2,
				ChunkID:        "report_chunk_002",
				Score:          0.12,
			},
		},
		RetrievedContext: []domain.ContextEntry{
			{Label: domain.CitationLabel("report.pdf", 2), Text: "second chunk body"},
		},
	}, nil
}

type fakeChunkStore struct{}

func (f *fakeChunkStore) SaveChunkSet(_ context.Context, _ *domain.ChunkSet) error { return nil }

func (f *fakeChunkStore) GetChunkSet(_ context.Context, documentName string) (*domain.ChunkSet, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeChunkStore) ListChunkSets(_ context.Context) ([]domain.DocumentInfo, error) {
	return []domain.DocumentInfo{
		{Filename: "report.pdf", DocumentName: "report", TotalChunks: 2, Method: domain.ChunkingSemantic, TokenRange: "300-800"},
	}, nil
}

func (f *fakeChunkStore) DeleteChunkSet(_ context.Context, _ string) error { return nil }

func (f *fakeChunkStore) Close() error { return nil }

type fakeVectorStore struct{}

func (f *fakeVectorStore) Upsert(_ context.Context, _ string, _ []driven.VectorRecord) error {
	return nil
}

func (f *fakeVectorStore) Query(_ context.Context, _ string, _ []float32, _ int) ([]driven.QueryMatch, error) {
	return nil, nil
}

func (f *fakeVectorStore) Metric(_ context.Context, _ string) (driven.Metric, error) {
	return driven.MetricCosine, nil
}

func (f *fakeVectorStore) ListCollections(_ context.Context) ([]driven.CollectionStats, error) {
	return []driven.CollectionStats{
		{Name: "report_embeddings", Count: 2, Metric: driven.MetricCosine},
	}, nil
}

func (f *fakeVectorStore) Stats(_ context.Context, collection string) (*driven.CollectionStats, error) {
	if collection != "report_embeddings" {
		return nil, domain.ErrCollectionNotFound
	}
	return &driven.CollectionStats{Name: collection, Count: 2, Metric: driven.MetricCosine}, nil
}

func (f *fakeVectorStore) Close() error { return nil }
