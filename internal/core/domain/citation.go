package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Citation is a parsed attribution marker tying a statement back to a chunk.
type Citation struct {
	// SourceFilename is the cited file name.
	SourceFilename string

	// ChunkNumber is the cited 1-based chunk number.
	ChunkNumber int
}

// citationPattern matches the canonical label format emitted into the context
// block and requested from the synthesis collaborator.
var citationPattern = regexp.MustCompile(`(?i)\[source:\s*([^|\]]+?)\s*\|\s*chunk\s*#?(\d+)\s*\]`)

// CitationLabel formats the canonical context label for a chunk:
// "[Source: <filename> | chunk <N>]".
func CitationLabel(sourceFilename string, chunkNumber int) string {
	return fmt.Sprintf("[Source: %s | chunk %d]", sourceFilename, chunkNumber)
}

// SourceDisplay formats the human-readable source reference:
// "<filename> — Chunk <N>".
func SourceDisplay(sourceFilename string, chunkNumber int) string {
	return fmt.Sprintf("%s — Chunk %d", sourceFilename, chunkNumber)
}

// ParseCitations extracts every canonical citation marker from synthesized
// text. Markers that do not parse are ignored; duplicates are collapsed,
// preserving first-seen order.
func ParseCitations(text string) []Citation {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[Citation]bool, len(matches))
	citations := make([]Citation, 0, len(matches))

	for _, m := range matches {
		number, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		c := Citation{
			SourceFilename: strings.TrimSpace(m[1]),
			ChunkNumber:    number,
		}
		if c.SourceFilename == "" {
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		citations = append(citations, c)
	}

	return citations
}
