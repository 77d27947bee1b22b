package domain

// BoundarySuggestion is what the boundary-suggestion collaborator returns for
// a document's combined text. All fields are advisory: offsets are validated
// before use and topics/reasoning default to empty when absent.
type BoundarySuggestion struct {
	// Offsets are candidate split positions, in bytes into the combined text.
	Offsets []int

	// Topics are per-span topic labels, aligned with the spans the offsets
	// produce. May be shorter than the span list or empty.
	Topics []string

	// Reasoning are per-span rationale strings, aligned like Topics.
	Reasoning []string
}

// Span is one raw, pre-adjustment slice of the combined text produced by the
// boundary planner. Spans cover the document with no gaps and no overlaps.
type Span struct {
	// Text is a byte-for-byte slice of the combined text.
	Text string

	// Topic is the suggester's label for this span, or "".
	Topic string

	// Reasoning is the suggester's rationale for this span, or "".
	Reasoning string
}

// Plan is the boundary planner's output: the raw spans plus the method that
// produced them.
type Plan struct {
	// Spans cover the full combined text in order.
	Spans []Span

	// Method is semantic when suggester offsets were used, fixed_window when
	// the fallback split was applied.
	Method ChunkingMethod
}
