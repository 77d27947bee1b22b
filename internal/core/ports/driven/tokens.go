package driven

// TokenCounter counts tokens under a fixed tokenization scheme.
// Counts must be deterministic: repeated calls on identical text return
// identical counts. There is deliberately no character-count fallback -
// when the tokenizer cannot run, construction or Count must fail so the
// size-bound invariant is never silently violated downstream.
type TokenCounter interface {
	// Count returns the non-negative token count of text.
	Count(text string) (int, error)

	// Encoding returns the name of the tokenization scheme, e.g. "cl100k_base".
	Encoding() string
}
