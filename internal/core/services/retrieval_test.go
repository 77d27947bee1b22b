package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

func matchFor(id string, number int, score float64) driven.QueryMatch {
	return driven.QueryMatch{
		ID:    id,
		Text:  "text of " + id,
		Score: score,
		Metadata: map[string]any{
			"chunk_id":        id,
			"chunk_number":    number,
			"token_count":     420,
			"source_filename": "manual.pdf",
			"document_name":   "manual",
			"topic":           "setup",
		},
	}
}

func TestRetrieve_RanksAscendingByScore(t *testing.T) {
	store := newStubVectorStore()
	store.metric = driven.MetricL2
	store.matches = []driven.QueryMatch{
		matchFor("manual_chunk_003", 3, 0.9),
		matchFor("manual_chunk_001", 1, 0.2),
		matchFor("manual_chunk_002", 2, 0.5),
	}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "how to install", "manual_embeddings", 5)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "manual_chunk_001", results[0].ChunkID)
	assert.Equal(t, "manual_chunk_002", results[1].ChunkID)
	assert.Equal(t, "manual_chunk_003", results[2].ChunkID)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRetrieve_InnerProductScoresNegated(t *testing.T) {
	// Inner product ranks higher = more similar; after normalization the
	// highest raw product must sort first with a negative score.
	store := newStubVectorStore()
	store.metric = driven.MetricInnerProduct
	store.matches = []driven.QueryMatch{
		matchFor("manual_chunk_001", 1, 0.3),
		matchFor("manual_chunk_002", 2, 0.8),
	}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "manual_chunk_002", results[0].ChunkID)
	assert.InDelta(t, -0.8, results[0].Score, 1e-9)
	assert.InDelta(t, -0.3, results[1].Score, 1e-9)
}

func TestRetrieve_TieBreaksByChunkNumber(t *testing.T) {
	store := newStubVectorStore()
	store.metric = driven.MetricCosine
	store.matches = []driven.QueryMatch{
		matchFor("manual_chunk_007", 7, 0.4),
		matchFor("manual_chunk_002", 2, 0.4),
	}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].ChunkNumber)
	assert.Equal(t, 7, results[1].ChunkNumber)
}

func TestRetrieve_AttributionFromMetadata(t *testing.T) {
	store := newStubVectorStore()
	store.matches = []driven.QueryMatch{matchFor("manual_chunk_004", 4, 0.1)}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "manual.pdf", r.SourceFilename)
	assert.Equal(t, "manual", r.DocumentName)
	assert.Equal(t, 4, r.ChunkNumber)
	assert.Equal(t, "setup", r.Topic)
	assert.Equal(t, 420, r.TokenCount)
	assert.Equal(t, "text of manual_chunk_004", r.Text)
}

func TestRetrieve_MissingMetadata_Tolerated(t *testing.T) {
	store := newStubVectorStore()
	store.matches = []driven.QueryMatch{{ID: "orphan", Text: "body", Score: 0.3}}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "orphan", results[0].ChunkID)
	assert.Equal(t, "unknown", results[0].SourceFilename)
	assert.Equal(t, 0, results[0].ChunkNumber)
}

func TestRetrieve_FloatMetadataNumbers(t *testing.T) {
	// JSON transports hand back numbers as float64.
	store := newStubVectorStore()
	store.matches = []driven.QueryMatch{{
		ID:    "manual_chunk_001",
		Score: 0.2,
		Metadata: map[string]any{
			"chunk_number": float64(9),
			"token_count":  float64(512),
		},
	}}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.NoError(t, err)
	assert.Equal(t, 9, results[0].ChunkNumber)
	assert.Equal(t, 512, results[0].TokenCount)
}

func TestRetrieve_TopKCapsResults(t *testing.T) {
	store := newStubVectorStore()
	for i := 1; i <= 10; i++ {
		store.matches = append(store.matches, matchFor(domain.ChunkID("manual", i), i, float64(i)/10))
	}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 3)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	store := newStubVectorStore()
	for i := 1; i <= 10; i++ {
		store.matches = append(store.matches, matchFor(domain.ChunkID("manual", i), i, float64(i)/10))
	}
	svc := NewRetrievalService(&stubEmbedder{}, store)

	results, err := svc.Retrieve(context.Background(), "q", "c", 0)

	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestRetrieve_EmptyCollection(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{}, newStubVectorStore())

	results, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_InputValidation(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{}, newStubVectorStore())
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, "   ", "c", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Retrieve(ctx, "q", "", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_EmbedFailure(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{embedErr: errors.New("model cold")}, newStubVectorStore())

	_, err := svc.Retrieve(context.Background(), "q", "c", 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieve_QueryFailure(t *testing.T) {
	store := newStubVectorStore()
	store.queryErr = domain.ErrCollectionNotFound
	svc := NewRetrievalService(&stubEmbedder{}, store)

	_, err := svc.Retrieve(context.Background(), "q", "missing", 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name   string
		metric driven.Metric
		raw    float64
		want   float64
	}{
		{"l2 passes through", driven.MetricL2, 1.5, 1.5},
		{"cosine passes through", driven.MetricCosine, 0.25, 0.25},
		{"inner product negated", driven.MetricInnerProduct, 0.9, -0.9},
		{"negative inner product", driven.MetricInnerProduct, -0.4, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeScore(tt.raw, tt.metric))
		})
	}
}
