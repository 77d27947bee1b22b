package tiktoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

// newTestCounter skips when the BPE vocabulary is not available locally.
func newTestCounter(t *testing.T) *Counter {
	t.Helper()
	c, err := NewCounter("")
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return c
}

func TestCount_Deterministic(t *testing.T) {
	c := newTestCounter(t)

	first, err := c.Count("The quick brown fox jumps over the lazy dog.")
	require.NoError(t, err)
	second, err := c.Count("The quick brown fox jumps over the lazy dog.")
	require.NoError(t, err)

	assert.Positive(t, first)
	assert.Equal(t, first, second)
}

func TestCount_EmptyText(t *testing.T) {
	c := newTestCounter(t)

	n, err := c.Count("")

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCount_GrowsWithText(t *testing.T) {
	c := newTestCounter(t)

	short, err := c.Count("hello")
	require.NoError(t, err)
	long, err := c.Count("hello world, this is a longer sentence with more tokens")
	require.NoError(t, err)

	assert.Greater(t, long, short)
}

func TestNewCounter_UnknownEncoding(t *testing.T) {
	_, err := NewCounter("no-such-encoding")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTokenizerUnavailable)
}

func TestEncoding_Default(t *testing.T) {
	c := newTestCounter(t)

	assert.Equal(t, DefaultEncoding, c.Encoding())
}
