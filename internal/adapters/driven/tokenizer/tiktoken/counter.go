// Package tiktoken provides a token counter backed by the tiktoken BPE
// vocabularies.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding matches the tokenization of current OpenAI embedding and
// chat models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens using a fixed tiktoken encoding. Construction fails
// when the encoding cannot be loaded; there is no approximate fallback, so a
// count is always exact for the configured scheme.
type Counter struct {
	encoding string
	codec    *tiktoken.Tiktoken
}

// NewCounter creates a counter for the named encoding, defaulting to
// cl100k_base.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	codec, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: load encoding %q: %v", domain.ErrTokenizerUnavailable, encoding, err)
	}

	return &Counter{encoding: encoding, codec: codec}, nil
}

// Count returns the exact token count of text under the configured encoding.
func (c *Counter) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(c.codec.Encode(text, nil, nil)), nil
}

// Encoding returns the name of the tokenization scheme.
func (c *Counter) Encoding() string {
	return c.encoding
}
