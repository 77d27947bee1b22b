package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSet(documentName string, chunks int) *domain.ChunkSet {
	now := time.Now().UTC().Truncate(time.Second)
	set := &domain.ChunkSet{
		ID: "set-" + documentName,
		Info: domain.DocumentInfo{
			Filename:     documentName + ".pdf",
			DocumentName: documentName,
			TotalChunks:  chunks,
			Method:       domain.ChunkingSemantic,
			TokenRange:   domain.TokenRangeLabel(300, 800),
		},
		CreatedAt: now,
	}
	for i := 1; i <= chunks; i++ {
		set.Chunks = append(set.Chunks, domain.Chunk{
			ID:         domain.ChunkID(documentName, i),
			Number:     i,
			Content:    "chunk content " + domain.ChunkID(documentName, i),
			TokenCount: 350,
			Topic:      "topic",
			Reasoning:  "reasoning",
			Source: domain.SourceInfo{
				Filename:     documentName + ".pdf",
				DocumentName: documentName,
			},
			CreatedAt: now,
		})
	}
	return set
}

func TestSaveAndGetChunkSet_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	set := sampleSet("manual", 3)

	require.NoError(t, store.SaveChunkSet(ctx, set))

	got, err := store.GetChunkSet(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, set.ID, got.ID)
	assert.Equal(t, set.Info, got.Info)
	require.Len(t, got.Chunks, 3)
	for i, c := range got.Chunks {
		assert.Equal(t, i+1, c.Number)
		assert.Equal(t, set.Chunks[i].ID, c.ID)
		assert.Equal(t, set.Chunks[i].Content, c.Content)
		assert.Equal(t, set.Chunks[i].TokenCount, c.TokenCount)
		assert.Equal(t, set.Chunks[i].Source, c.Source)
	}
}

func TestSaveChunkSet_ReplacesPreviousGeneration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := sampleSet("manual", 5)
	require.NoError(t, store.SaveChunkSet(ctx, first))

	second := sampleSet("manual", 2)
	second.ID = "set-manual-v2"
	require.NoError(t, store.SaveChunkSet(ctx, second))

	got, err := store.GetChunkSet(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, "set-manual-v2", got.ID)
	assert.Len(t, got.Chunks, 2)
}

func TestSaveChunkSet_PreservesOutOfBoundsFlag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	set := sampleSet("manual", 2)
	set.Chunks[1].TokenCount = 40
	set.Chunks[1].OutOfBounds = true

	require.NoError(t, store.SaveChunkSet(ctx, set))

	got, err := store.GetChunkSet(ctx, "manual")
	require.NoError(t, err)
	assert.False(t, got.Chunks[0].OutOfBounds)
	assert.True(t, got.Chunks[1].OutOfBounds)
}

func TestGetChunkSet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetChunkSet(context.Background(), "absent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListChunkSets_OrderedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveChunkSet(ctx, sampleSet("zeta", 1)))
	require.NoError(t, store.SaveChunkSet(ctx, sampleSet("alpha", 4)))

	infos, err := store.ListChunkSets(ctx)

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].DocumentName)
	assert.Equal(t, 4, infos[0].TotalChunks)
	assert.Equal(t, "zeta", infos[1].DocumentName)
}

func TestDeleteChunkSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveChunkSet(ctx, sampleSet("manual", 2)))

	require.NoError(t, store.DeleteChunkSet(ctx, "manual"))

	_, err := store.GetChunkSet(ctx, "manual")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteChunkSet_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteChunkSet(context.Background(), "absent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveChunkSet_MissingDocumentName(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveChunkSet(context.Background(), &domain.ChunkSet{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_ReopensExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveChunkSet(ctx, sampleSet("manual", 1)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetChunkSet(ctx, "manual")
	require.NoError(t, err)
	assert.Len(t, got.Chunks, 1)
}
