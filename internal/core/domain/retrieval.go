package domain

// RetrievalResult is one retrieved chunk for a query, ephemeral per call.
// Results are ordered by ascending Score (lower = more similar) regardless of
// the vector store's underlying distance metric.
type RetrievalResult struct {
	// Rank is the 1-based position in the result list.
	Rank int

	// ChunkID is the retrieved chunk's identifier.
	ChunkID string

	// Text is the chunk content as stored.
	Text string

	// Score is the normalized distance; lower means more similar.
	Score float64

	// SourceFilename is the originating file name.
	SourceFilename string

	// DocumentName is the document the chunk belongs to.
	DocumentName string

	// ChunkNumber is the chunk's position within its document.
	ChunkNumber int

	// Topic is the chunk's topic annotation, or "".
	Topic string

	// TokenCount is the chunk's measured token count.
	TokenCount int
}

// SourceRef is one attributed source in an answer. Every SourceRef must trace
// back to a chunk that was actually retrieved for the query.
type SourceRef struct {
	// Display is the human-readable form, e.g. "report.pdf — Chunk 4".
	Display string

	// SourceFilename is the cited file.
	SourceFilename string

	// ChunkNumber is the cited chunk's position.
	ChunkNumber int

	// ChunkID is the cited chunk's identifier.
	ChunkID string

	// Score is the retrieval score of the cited chunk.
	Score float64
}

// ContextEntry is one labeled block of retrieved context, kept so callers can
// audit what was available to the synthesizer.
type ContextEntry struct {
	// Label is the canonical citation label, e.g. "[Source: report.pdf | chunk 4]".
	Label string

	// Text is the chunk content.
	Text string
}

// Answer is the final structured output of the answer pipeline.
type Answer struct {
	// FinalAnswer is the synthesized answer text.
	FinalAnswer string

	// SourcesUsed are the validated citations, in rank order. Empty when no
	// context was retrieved.
	SourcesUsed []SourceRef

	// RetrievedContext is always the full retrieved set, independent of which
	// sources the answer actually cited.
	RetrievedContext []ContextEntry
}
