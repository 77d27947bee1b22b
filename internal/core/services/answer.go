package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// NoContextAnswer is returned, without calling the synthesis collaborator,
// when retrieval produced nothing to ground an answer in.
const NoContextAnswer = "I could not find any relevant information in the retrieved context."

// systemPrompt enforces grounding: answer only from context, cite in the
// canonical format, admit ignorance when the context is insufficient.
const systemPrompt = `You are an assistant for a document question-answering system.
You MUST answer strictly based only on the provided context chunks.
If the answer is not present in the context, reply that you don't know.
When you use a fact, include a citation in the form:
[Source: file.pdf | chunk 12]
Do NOT introduce any external knowledge.`

// AnswerService assembles grounded, attributed answers. Every citation the
// synthesis collaborator emits is cross-checked against the actually
// retrieved chunks; the pipeline never propagates an attribution that was
// not retrieved.
type AnswerService struct {
	retrieval driving.RetrievalService
	synthesis driven.SynthesisService
}

// NewAnswerService creates a new answer service.
func NewAnswerService(retrieval driving.RetrievalService, synthesis driven.SynthesisService) *AnswerService {
	return &AnswerService{retrieval: retrieval, synthesis: synthesis}
}

// Answer runs the retrieve-synthesize-validate flow.
func (s *AnswerService) Answer(ctx context.Context, question, collection string, topK int) (*domain.Answer, error) {
	logger.Section("Answer Assembly")

	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.synthesis == nil {
		return nil, domain.ErrSynthesisUnavailable
	}

	retrieved, err := s.retrieval.Retrieve(ctx, question, collection, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	// Never send an empty-context prompt to the synthesis collaborator.
	if len(retrieved) == 0 {
		logger.Info("No context retrieved, skipping synthesis")
		return &domain.Answer{
			FinalAnswer:      NoContextAnswer,
			SourcesUsed:      []domain.SourceRef{},
			RetrievedContext: []domain.ContextEntry{},
		}, nil
	}

	contextEntries := buildContextEntries(retrieved)
	answerText, err := s.synthesize(ctx, question, contextEntries)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		FinalAnswer:      answerText,
		SourcesUsed:      validateCitations(answerText, retrieved),
		RetrievedContext: contextEntries,
	}, nil
}

// buildContextEntries labels each retrieved chunk with its canonical
// citation label, in retrieval rank order.
func buildContextEntries(retrieved []domain.RetrievalResult) []domain.ContextEntry {
	entries := make([]domain.ContextEntry, len(retrieved))
	for i, r := range retrieved {
		entries[i] = domain.ContextEntry{
			Label: domain.CitationLabel(r.SourceFilename, r.ChunkNumber),
			Text:  r.Text,
		}
	}
	return entries
}

// synthesize invokes the answer-synthesis collaborator with the labeled
// context block and strict grounding instructions.
func (s *AnswerService) synthesize(ctx context.Context, question string, entries []domain.ContextEntry) (string, error) {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = e.Label + "\n" + e.Text
	}

	userPrompt := fmt.Sprintf(
		"User question:\n%s\n\nContext chunks:\n%s\n\n"+
			"Now provide a concise, clear answer grounded ONLY in the context above. "+
			"Include inline citations as requested.",
		question, strings.Join(blocks, "\n\n"))

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	logger.Debug("Synthesizing answer with %d context chunks", len(entries))
	answer, err := s.synthesis.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w: %v", domain.ErrSynthesisUnavailable, err)
	}
	return answer, nil
}

// validateCitations cross-checks the markers the collaborator emitted
// against the retrieved set. Citations with no matching retrieved chunk are
// dropped and logged - the collaborator may hallucinate a citation, and the
// answer can still be useful without it. When no marker parses at all, the
// full retrieved set is attributed in rank order, since the answer is by
// construction context-bound.
func validateCitations(answerText string, retrieved []domain.RetrievalResult) []domain.SourceRef {
	parsed := domain.ParseCitations(answerText)
	if len(parsed) == 0 {
		logger.Debug("No parseable citations in answer, attributing full retrieved set")
		return sourceRefs(retrieved)
	}

	cited := make(map[domain.Citation]bool, len(parsed))
	for _, c := range parsed {
		cited[c] = true
	}

	var used []domain.RetrievalResult
	for _, r := range retrieved {
		key := domain.Citation{SourceFilename: r.SourceFilename, ChunkNumber: r.ChunkNumber}
		if cited[key] {
			used = append(used, r)
			delete(cited, key)
		}
	}

	for c := range cited {
		logger.Warn("Attribution mismatch: dropping citation for %s chunk %d (not in retrieved set)",
			c.SourceFilename, c.ChunkNumber)
	}

	return sourceRefs(used)
}

func sourceRefs(results []domain.RetrievalResult) []domain.SourceRef {
	refs := make([]domain.SourceRef, len(results))
	for i, r := range results {
		refs[i] = domain.SourceRef{
			Display:        domain.SourceDisplay(r.SourceFilename, r.ChunkNumber),
			SourceFilename: r.SourceFilename,
			ChunkNumber:    r.ChunkNumber,
			ChunkID:        r.ChunkID,
			Score:          r.Score,
		}
	}
	return refs
}
