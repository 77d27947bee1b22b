package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// BoundaryPlanner converts collaborator-suggested split offsets into a
// validated, ordered list of raw spans covering the combined text with no
// gaps and no overlaps. When the suggester is nil, fails, or returns zero
// usable offsets, it falls back to a fixed token-window split so the
// pipeline stays fully functional without the collaborator.
type BoundaryPlanner struct {
	suggester driven.BoundarySuggester
	counter   driven.TokenCounter
	minTokens int
	maxTokens int
}

// NewBoundaryPlanner creates a new boundary planner.
// The suggester parameter is optional (can be nil).
func NewBoundaryPlanner(
	suggester driven.BoundarySuggester,
	counter driven.TokenCounter,
	minTokens, maxTokens int,
) *BoundaryPlanner {
	if minTokens <= 0 {
		minTokens = domain.DefaultMinTokens
	}
	if maxTokens <= minTokens {
		maxTokens = domain.DefaultMaxTokens
	}
	return &BoundaryPlanner{
		suggester: suggester,
		counter:   counter,
		minTokens: minTokens,
		maxTokens: maxTokens,
	}
}

// Plan produces the raw span list for the combined text.
func (p *BoundaryPlanner) Plan(ctx context.Context, text string) (*domain.Plan, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty document text", domain.ErrInvalidInput)
	}

	suggestion := p.suggest(ctx, text)

	var offsets []int
	if suggestion != nil {
		offsets = validOffsets(suggestion.Offsets, text)
	}

	if len(offsets) == 0 {
		logger.Info("No usable split offsets, falling back to fixed-window split")
		spans, err := p.fixedWindowSpans(text)
		if err != nil {
			return nil, err
		}
		return &domain.Plan{Spans: spans, Method: domain.ChunkingFixedWindow}, nil
	}

	logger.Debug("Using %d suggested offsets for %d bytes of text", len(offsets), len(text))
	spans := spansFromOffsets(text, offsets, suggestion)
	return &domain.Plan{Spans: spans, Method: domain.ChunkingSemantic}, nil
}

// suggest calls the boundary collaborator, tolerating absence and failure.
func (p *BoundaryPlanner) suggest(ctx context.Context, text string) *domain.BoundarySuggestion {
	if p.suggester == nil {
		logger.Debug("Boundary suggester not configured")
		return nil
	}

	suggestion, err := p.suggester.SuggestBoundaries(ctx, text)
	if err != nil {
		logger.Warn("Boundary suggestion failed: %v (falling back)", err)
		return nil
	}
	return suggestion
}

// validOffsets filters the suggested offsets down to the usable ones:
// strictly increasing, strictly inside (0, len(text)) and on a rune
// boundary. Rejected offsets are discarded with a warning, not fatal.
func validOffsets(suggested []int, text string) []int {
	offsets := make([]int, 0, len(suggested))
	prev := 0

	for _, o := range suggested {
		switch {
		case o <= 0 || o >= len(text):
			logger.Warn("Discarding out-of-range split offset %d (text length %d)", o, len(text))
		case o <= prev:
			logger.Warn("Discarding non-increasing split offset %d (previous %d)", o, prev)
		case !utf8.RuneStart(text[o]):
			logger.Warn("Discarding split offset %d inside a multi-byte rune", o)
		default:
			offsets = append(offsets, o)
			prev = o
		}
	}

	return offsets
}

// spansFromOffsets derives the covering spans [0,o1), [o1,o2), ..., [on,len)
// and attaches per-span topic and reasoning where the suggestion provides
// them, defaulting to empty strings.
func spansFromOffsets(text string, offsets []int, suggestion *domain.BoundarySuggestion) []domain.Span {
	spans := make([]domain.Span, 0, len(offsets)+1)
	start := 0

	emit := func(end int) {
		i := len(spans)
		span := domain.Span{Text: text[start:end]}
		if i < len(suggestion.Topics) {
			span.Topic = suggestion.Topics[i]
		}
		if i < len(suggestion.Reasoning) {
			span.Reasoning = suggestion.Reasoning[i]
		}
		spans = append(spans, span)
		start = end
	}

	for _, o := range offsets {
		emit(o)
	}
	emit(len(text))

	return spans
}

// fixedWindowSpans splits text into spans of roughly (min+max)/2 tokens by
// greedily packing sentence segments. Oversized spans are left for the
// assembler's split pass.
func (p *BoundaryPlanner) fixedWindowSpans(text string) ([]domain.Span, error) {
	target := (p.minTokens + p.maxTokens) / 2

	segments := splitSegments(text)
	spans := make([]domain.Span, 0)

	current := ""
	currentTokens := 0
	for _, seg := range segments {
		segTokens, err := p.counter.Count(seg)
		if err != nil {
			return nil, fmt.Errorf("count segment tokens: %w", err)
		}
		if current != "" && currentTokens+segTokens > target {
			spans = append(spans, domain.Span{Text: current})
			current = ""
			currentTokens = 0
		}
		current += seg
		currentTokens += segTokens
	}
	if current != "" {
		spans = append(spans, domain.Span{Text: current})
	}

	return spans, nil
}

// splitSegments cuts text into sentence-ish segments whose concatenation
// reproduces the input byte-for-byte. The cut falls immediately after a
// sentence terminator or newline.
func splitSegments(text string) []string {
	var segments []string
	start := 0

	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			end := i + utf8.RuneLen(r)
			segments = append(segments, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		segments = append(segments, text[start:])
	}

	return segments
}
