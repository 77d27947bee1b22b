package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// Ensure ChunkingService implements the interface.
var _ driving.ChunkingService = (*ChunkingService)(nil)

// measuredSpan is a span with its final token count, ready for identity
// assignment.
type measuredSpan struct {
	text      string
	tokens    int
	topic     string
	reasoning string
}

// ChunkingService converts raw spans into size-valid chunks with
// deterministic identifiers and persists them as the document's chunk set.
//
// The boundary-adjustment pass is inherently sequential: each merge decision
// depends on the previous span's final size. Chunk numbers are a pure
// function of the final span order, never a shared counter, so documents can
// be chunked concurrently.
type ChunkingService struct {
	planner    *BoundaryPlanner
	counter    driven.TokenCounter
	chunkStore driven.ChunkSetStore
	minTokens  int
	maxTokens  int
}

// NewChunkingService creates a new chunking service.
func NewChunkingService(
	planner *BoundaryPlanner,
	counter driven.TokenCounter,
	chunkStore driven.ChunkSetStore,
	minTokens, maxTokens int,
) *ChunkingService {
	if minTokens <= 0 {
		minTokens = domain.DefaultMinTokens
	}
	if maxTokens <= minTokens {
		maxTokens = domain.DefaultMaxTokens
	}
	return &ChunkingService{
		planner:    planner,
		counter:    counter,
		chunkStore: chunkStore,
		minTokens:  minTokens,
		maxTokens:  maxTokens,
	}
}

// ChunkDocument plans boundaries, enforces the token-size contract and
// persists the resulting chunk set atomically.
func (s *ChunkingService) ChunkDocument(ctx context.Context, filename, combinedText string) (*domain.ChunkSet, error) {
	logger.Section("Document Chunking")

	if filename == "" {
		return nil, fmt.Errorf("%w: missing filename", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(combinedText) == "" {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrInvalidInput, filename)
	}

	documentName := strings.TrimSuffix(filename, filepath.Ext(filename))
	logger.Debug("Document: %s (%d bytes)", documentName, len(combinedText))

	plan, err := s.planner.Plan(ctx, combinedText)
	if err != nil {
		return nil, fmt.Errorf("plan boundaries: %w", err)
	}
	logger.Info("Boundary plan: %d raw spans, method=%s", len(plan.Spans), plan.Method)

	final, err := s.adjustSpans(plan.Spans)
	if err != nil {
		return nil, fmt.Errorf("adjust spans: %w", err)
	}
	logger.Info("Final chunk count after adjustment: %d", len(final))

	set := s.buildChunkSet(documentName, filename, plan.Method, final)

	// Lossless partition check: chunk contents concatenated in order must
	// reproduce the combined text exactly.
	if joined := joinChunks(set.Chunks); joined != combinedText {
		return nil, fmt.Errorf("%w: chunk contents do not reproduce source text for %q",
			domain.ErrInvalidInput, documentName)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("validate chunk set: %w", err)
	}

	if err := s.chunkStore.SaveChunkSet(ctx, set); err != nil {
		return nil, fmt.Errorf("save chunk set: %w", err)
	}
	logger.Info("Persisted chunk set %s for %s (%d chunks)", set.ID, documentName, len(set.Chunks))

	return set, nil
}

// adjustSpans runs the left-to-right size-enforcement pass. Undersized spans
// merge into the next span before finalizing; oversized spans split at the
// nearest paragraph or sentence boundary within the token budget. The
// trailing span with no merge partner is kept as-is even when undersized.
func (s *ChunkingService) adjustSpans(spans []domain.Span) ([]measuredSpan, error) {
	var final []measuredSpan

	carry := measuredSpan{}
	for i, sp := range spans {
		cur := measuredSpan{
			text:      carry.text + sp.Text,
			topic:     firstNonEmpty(carry.topic, sp.Topic),
			reasoning: firstNonEmpty(carry.reasoning, sp.Reasoning),
		}
		carry = measuredSpan{}

		tokens, err := s.counter.Count(cur.text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenizerUnavailable, err)
		}
		cur.tokens = tokens

		last := i == len(spans)-1

		switch {
		case tokens < s.minTokens && !last:
			// Merge into the next span before finalizing.
			carry = cur

		case tokens <= s.maxTokens:
			final = append(final, cur)

		default:
			parts, err := s.splitLarge(cur)
			if err != nil {
				return nil, err
			}
			// The final part of a split may be undersized; give it the same
			// merge chance a raw span would get.
			tail := parts[len(parts)-1]
			final = append(final, parts[:len(parts)-1]...)
			if tail.tokens < s.minTokens && !last {
				carry = tail
			} else {
				final = append(final, tail)
			}
		}
	}

	if len(final) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced", domain.ErrInvalidInput)
	}

	trailing := &final[len(final)-1]
	if trailing.tokens < s.minTokens {
		logger.Warn("Trailing chunk undersized (%d tokens, min %d); kept as documented exception",
			trailing.tokens, s.minTokens)
	}

	return final, nil
}

// splitLarge cuts an oversized span into sub-spans each within the token
// budget, preferring paragraph boundaries, then sentence boundaries, then a
// hard cut at the token boundary. Sub-spans inherit the span's annotations.
func (s *ChunkingService) splitLarge(sp measuredSpan) ([]measuredSpan, error) {
	segments := splitParagraphs(sp.text)

	var parts []measuredSpan
	current := ""

	flush := func() error {
		if current == "" {
			return nil
		}
		tokens, err := s.counter.Count(current)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTokenizerUnavailable, err)
		}
		parts = append(parts, measuredSpan{
			text:      current,
			tokens:    tokens,
			topic:     sp.topic,
			reasoning: sp.reasoning,
		})
		current = ""
		return nil
	}

	for _, seg := range segments {
		for _, piece := range s.boundPieces(seg) {
			candidate := current + piece
			candidateTokens, err := s.counter.Count(candidate)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrTokenizerUnavailable, err)
			}

			if current != "" && candidateTokens > s.maxTokens {
				if err := flush(); err != nil {
					return nil, err
				}
				current = piece
				continue
			}
			current = candidate
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return parts, nil
}

// boundPieces ensures a single segment never exceeds the token budget on its
// own: segments within budget pass through untouched, larger ones are cut at
// sentence boundaries and, failing that, hard-cut at the token boundary.
func (s *ChunkingService) boundPieces(segment string) []string {
	tokens, err := s.counter.Count(segment)
	if err == nil && tokens <= s.maxTokens {
		return []string{segment}
	}

	var pieces []string
	for _, sentence := range splitSegments(segment) {
		st, err := s.counter.Count(sentence)
		if err != nil || st <= s.maxTokens {
			pieces = append(pieces, sentence)
			continue
		}
		// No natural boundary within budget: hard cut.
		rest := sentence
		for rest != "" {
			cut := s.hardCut(rest)
			pieces = append(pieces, rest[:cut])
			rest = rest[cut:]
		}
	}
	return pieces
}

// hardCut finds the longest prefix of text, ending on a rune boundary, whose
// token count fits the budget. Binary search over the rune boundaries keeps
// the number of counter calls logarithmic.
func (s *ChunkingService) hardCut(text string) int {
	lo, hi := 1, len(text)
	best := 0

	for lo <= hi {
		mid := (lo + hi) / 2
		cut := runeBoundaryAtOrBefore(text, mid)
		if cut == 0 {
			lo = mid + 1
			continue
		}
		tokens, err := s.counter.Count(text[:cut])
		if err != nil || tokens > s.maxTokens {
			hi = cut - 1
			continue
		}
		best = cut
		lo = cut + 1
	}

	if best == 0 {
		// Even a single rune exceeds the budget; take it anyway so text is
		// never dropped.
		_, size := utf8.DecodeRuneInString(text)
		return size
	}
	return best
}

// buildChunkSet assigns identity in final left-to-right order and stamps the
// set. Numbering is contiguous from 1 regardless of how many merges or
// splits occurred.
func (s *ChunkingService) buildChunkSet(
	documentName, filename string,
	method domain.ChunkingMethod,
	final []measuredSpan,
) *domain.ChunkSet {
	now := time.Now().UTC()
	source := domain.SourceInfo{Filename: filename, DocumentName: documentName}

	chunks := make([]domain.Chunk, len(final))
	for i, m := range final {
		number := i + 1
		chunks[i] = domain.Chunk{
			ID:          domain.ChunkID(documentName, number),
			Number:      number,
			Content:     m.text,
			TokenCount:  m.tokens,
			Topic:       m.topic,
			Reasoning:   m.reasoning,
			Source:      source,
			OutOfBounds: m.tokens < s.minTokens || m.tokens > s.maxTokens,
			CreatedAt:   now,
		}
	}

	return &domain.ChunkSet{
		ID: uuid.New().String(),
		Info: domain.DocumentInfo{
			Filename:     filename,
			DocumentName: documentName,
			TotalChunks:  len(chunks),
			Method:       method,
			TokenRange:   domain.TokenRangeLabel(s.minTokens, s.maxTokens),
		},
		Chunks:    chunks,
		CreatedAt: now,
	}
}

// splitParagraphs cuts text immediately after each blank-line separator so
// concatenating the pieces reproduces the input exactly.
func splitParagraphs(text string) []string {
	var parts []string
	start := 0

	for i := 0; i+1 < len(text); {
		if text[i] != '\n' || text[i+1] != '\n' {
			i++
			continue
		}
		end := i + 2
		// Swallow any further newlines into the same separator.
		for end < len(text) && text[end] == '\n' {
			end++
		}
		parts = append(parts, text[start:end])
		start = end
		i = end
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}

	return parts
}

// runeBoundaryAtOrBefore returns the largest index <= i that starts a rune,
// so a cut at the returned index never splits a multi-byte sequence.
func runeBoundaryAtOrBefore(text string, i int) int {
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

func joinChunks(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
