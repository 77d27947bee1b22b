package driven

import "context"

// ChatMessage represents a single message in a synthesis conversation.
type ChatMessage struct {
	// Role is one of "system" or "user".
	Role string

	// Content is the message text.
	Content string
}

// SynthesisService is the answer-synthesis collaborator: it consumes a
// formatted context block plus a question and returns free-form text that is
// expected - but not guaranteed - to contain citation markers. The answer
// assembler never trusts its citations; they are cross-checked against the
// retrieved set.
//
// This is an optional service - when nil, the ask flow is unavailable but
// chunking, indexing and retrieval still work.
//
// Implementations may include:
//   - Mistral (chat completions API)
//   - Ollama (local models)
type SynthesisService interface {
	// Chat sends the conversation and returns the model's reply text.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// ModelName returns the name of the backing model.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
