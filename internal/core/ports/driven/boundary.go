package driven

import (
	"context"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

// BoundarySuggester proposes semantic split points for a document's combined
// text. This is an optional service - when nil, the planner falls back to
// fixed token-window splitting.
//
// The suggester is a non-deterministic, free-text-returning collaborator.
// Implementations must translate whatever the backing model emits into a
// BoundarySuggestion; offsets are validated by the planner, never trusted.
//
// Implementations may include:
//   - Gemini (via google generative AI)
//   - Any chat-completion model that can return structured JSON
type BoundarySuggester interface {
	// SuggestBoundaries analyses text and returns candidate split offsets
	// with optional topic labels and rationale.
	SuggestBoundaries(ctx context.Context, text string) (*domain.BoundarySuggestion, error)

	// ModelName returns the name of the backing model.
	ModelName() string

	// Close releases resources.
	Close() error
}
