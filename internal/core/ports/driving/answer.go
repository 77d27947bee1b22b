package driving

import (
	"context"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
)

// AnswerService runs the full attributed question-answering flow: retrieve,
// synthesize, cross-validate citations.
type AnswerService interface {
	// Answer retrieves up to topK chunks for question from collection,
	// synthesizes a grounded answer and returns it with validated sources
	// and the full retrieved context. When nothing is retrieved, a
	// deterministic "no relevant context" answer is returned without
	// calling the synthesis collaborator.
	Answer(ctx context.Context, question, collection string, topK int) (*domain.Answer, error)
}
