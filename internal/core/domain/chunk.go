package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default token bounds for finalized chunks. A chunk outside these bounds is
// only valid as the trailing chunk of a document when no merge partner exists.
const (
	DefaultMinTokens = 300
	DefaultMaxTokens = 800
)

// ChunkingMethod records how a document's chunk boundaries were produced.
type ChunkingMethod string

const (
	// ChunkingSemantic means boundaries came from the boundary-suggestion collaborator.
	ChunkingSemantic ChunkingMethod = "semantic"

	// ChunkingFixedWindow means boundaries came from the fixed token-window fallback.
	ChunkingFixedWindow ChunkingMethod = "fixed_window"
)

// SourceInfo identifies the document a chunk was cut from.
// Immutable once assigned.
type SourceInfo struct {
	// Filename is the original uploaded file name, extension included.
	Filename string

	// DocumentName is the filename without its extension.
	DocumentName string
}

// Chunk is the unit of retrieval: a contiguous, token-bounded slice of a
// document's combined text, individually embeddable and citable.
// Chunks are immutable after persistence; re-chunking a document produces a
// new generation with fresh IDs.
type Chunk struct {
	// ID is globally unique, derived from (document name, chunk number).
	ID string

	// Number is the 1-based position within the document, assigned in final
	// left-to-right order after all merge/split adjustment.
	Number int

	// Content is a byte-for-byte slice of the combined source text.
	Content string

	// TokenCount is the measured token count of Content at finalization.
	TokenCount int

	// Topic is the free-text topic label from the boundary suggester.
	// Empty when the suggester omitted it.
	Topic string

	// Reasoning is the suggester's rationale for this chunk's boundary.
	Reasoning string

	// Source identifies the originating document.
	Source SourceInfo

	// OutOfBounds marks a chunk whose token count violates the configured
	// bounds. Only the trailing chunk of a document may carry this flag;
	// flagged chunks are kept, never dropped.
	OutOfBounds bool

	// CreatedAt is set once, at finalization.
	CreatedAt time.Time
}

// ChunkID derives the deterministic chunk identifier for a document and a
// 1-based chunk number, e.g. "report_chunk_003".
func ChunkID(documentName string, number int) string {
	return fmt.Sprintf("%s_chunk_%03d", documentName, number)
}

// DocumentInfo summarizes one document's chunk set.
type DocumentInfo struct {
	// Filename is the original file name.
	Filename string

	// DocumentName is the filename without extension.
	DocumentName string

	// TotalChunks is the number of chunks in the set.
	TotalChunks int

	// Method records whether boundaries were semantic or fixed-window.
	Method ChunkingMethod

	// TokenRange is the configured bounds, e.g. "300-800".
	TokenRange string
}

// ChunkSet is the persisted chunk-set record for one document. A set is
// written all-or-nothing so numbering is never partially visible.
type ChunkSet struct {
	// ID identifies this generation of the document's chunks.
	ID string

	// Info is the document summary.
	Info DocumentInfo

	// Chunks are ordered by Number, contiguous from 1.
	Chunks []Chunk

	// CreatedAt is when the set was persisted.
	CreatedAt time.Time
}

// DefaultCollectionName derives the vector collection name for a document,
// e.g. "Annual Report" -> "annual_report_embeddings".
func DefaultCollectionName(documentName string) string {
	name := strings.ToLower(strings.ReplaceAll(documentName, " ", "_"))
	return name + "_embeddings"
}

// TokenRangeLabel formats the configured token bounds for DocumentInfo.
func TokenRangeLabel(minTokens, maxTokens int) string {
	return fmt.Sprintf("%d-%d", minTokens, maxTokens)
}

// Validate checks the structural invariants of a chunk set: non-empty
// content, contiguous 1-based numbering, and IDs matching their number.
func (cs *ChunkSet) Validate() error {
	if cs.Info.DocumentName == "" {
		return fmt.Errorf("%w: chunk set has no document name", ErrInvalidInput)
	}
	if len(cs.Chunks) == 0 {
		return fmt.Errorf("%w: chunk set for %q is empty", ErrInvalidInput, cs.Info.DocumentName)
	}
	for i, c := range cs.Chunks {
		if c.Number != i+1 {
			return fmt.Errorf("%w: chunk at index %d has number %d", ErrInvalidInput, i, c.Number)
		}
		if c.ID != ChunkID(cs.Info.DocumentName, c.Number) {
			return fmt.Errorf("%w: chunk %d has mismatched id %q", ErrInvalidInput, c.Number, c.ID)
		}
		if c.Content == "" {
			return fmt.Errorf("%w: chunk %d has empty content", ErrInvalidInput, c.Number)
		}
	}
	return nil
}
