// Package memory provides an in-memory chunk-set store. Nothing survives a
// restart; useful for tests and throwaway runs where SQLite is overkill.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure ChunkSetStore implements the interface.
var _ driven.ChunkSetStore = (*ChunkSetStore)(nil)

// ChunkSetStore is an in-memory implementation of driven.ChunkSetStore.
type ChunkSetStore struct {
	mu   sync.RWMutex
	sets map[string]domain.ChunkSet // keyed by document name
}

// NewChunkSetStore creates a new in-memory chunk-set store.
func NewChunkSetStore() *ChunkSetStore {
	return &ChunkSetStore{
		sets: make(map[string]domain.ChunkSet),
	}
}

// SaveChunkSet stores a document's chunk set, replacing any previous
// generation for the same document name.
func (s *ChunkSetStore) SaveChunkSet(_ context.Context, set *domain.ChunkSet) error {
	if set == nil || set.Info.DocumentName == "" {
		return fmt.Errorf("%w: chunk set has no document name", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *set
	copied.Chunks = make([]domain.Chunk, len(set.Chunks))
	copy(copied.Chunks, set.Chunks)
	s.sets[set.Info.DocumentName] = copied
	return nil
}

// GetChunkSet retrieves the chunk set for a document.
func (s *ChunkSetStore) GetChunkSet(_ context.Context, documentName string) (*domain.ChunkSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[documentName]
	if !ok {
		return nil, fmt.Errorf("%w: no chunk set for document %q", domain.ErrNotFound, documentName)
	}

	copied := set
	copied.Chunks = make([]domain.Chunk, len(set.Chunks))
	copy(copied.Chunks, set.Chunks)
	return &copied, nil
}

// ListChunkSets returns the DocumentInfo of every stored set, ordered by
// document name.
func (s *ChunkSetStore) ListChunkSets(_ context.Context) ([]domain.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.DocumentInfo, 0, len(s.sets))
	for _, set := range s.sets {
		infos = append(infos, set.Info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].DocumentName < infos[j].DocumentName
	})
	return infos, nil
}

// DeleteChunkSet removes a document's chunk set.
func (s *ChunkSetStore) DeleteChunkSet(_ context.Context, documentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[documentName]; !ok {
		return fmt.Errorf("%w: no chunk set for document %q", domain.ErrNotFound, documentName)
	}
	delete(s.sets, documentName)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *ChunkSetStore) Close() error {
	return nil
}
