package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors; callers test the kind with
// errors.Is and treat the wrapped message as human-readable detail.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input (bad offsets,
	// empty document, missing required field). Aborts only the affected
	// document or query, never the process.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollectionNotFound indicates a query against a collection that was
	// never indexed. Reported, not fatal.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrTokenizerUnavailable indicates the token counter cannot run. The
	// pipeline fails fast rather than approximating with character counts,
	// since approximation would break the size-bound invariant downstream.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrBoundarySuggesterUnavailable indicates the boundary-suggestion
	// collaborator is unreachable or returned garbage. Recovered locally:
	// the planner falls back to fixed-window splitting.
	ErrBoundarySuggesterUnavailable = errors.New("boundary suggester unavailable")

	// ErrEmbeddingUnavailable indicates the embedding collaborator failed.
	// Never silently skipped: losing a chunk's vector breaks retrieval
	// completeness.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSynthesisUnavailable indicates the answer-synthesis collaborator
	// is unreachable or errored.
	ErrSynthesisUnavailable = errors.New("synthesis service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store cannot be reached.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)
