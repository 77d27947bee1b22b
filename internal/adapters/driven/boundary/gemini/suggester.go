// Package gemini provides a boundary suggester adapter using the Google
// generative AI API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Suggester implements the interface.
var _ driven.BoundarySuggester = (*Suggester)(nil)

// DefaultModel is the generation model used for boundary analysis.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini boundary suggester.
type Config struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// Model is the generation model to use (default: gemini-1.5-flash).
	Model string

	// MinTokens and MaxTokens are passed to the model as sizing guidance.
	MinTokens int
	MaxTokens int
}

// Suggester asks a Gemini model for topic-based split offsets. The model's
// output is free text; everything parseable is extracted and everything else
// is discarded, so a malformed reply degrades to an empty suggestion rather
// than an error the pipeline would abort on.
type Suggester struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	minTokens int
	maxTokens int
}

// suggestionPayload is the JSON shape the prompt requests.
type suggestionPayload struct {
	SplitIndices []int    `json:"split_indices"`
	Topics       []string `json:"topics"`
	Reasoning    []string `json:"reasoning"`
}

// NewSuggester creates a new Gemini boundary suggester.
func NewSuggester(ctx context.Context, cfg Config) (*Suggester, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = domain.DefaultMinTokens
	}
	if cfg.MaxTokens <= cfg.MinTokens {
		cfg.MaxTokens = domain.DefaultMaxTokens
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"

	return &Suggester{
		client:    client,
		model:     model,
		modelName: cfg.Model,
		minTokens: cfg.MinTokens,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// SuggestBoundaries analyses text and returns candidate split offsets with
// topic labels and rationale.
func (s *Suggester) SuggestBoundaries(ctx context.Context, text string) (*domain.BoundarySuggestion, error) {
	prompt := s.buildPrompt(text)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBoundarySuggesterUnavailable, err)
	}

	raw := responseText(resp)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrBoundarySuggesterUnavailable)
	}

	payload, err := parsePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("parse boundary response: %w", err)
	}

	return &domain.BoundarySuggestion{
		Offsets:   payload.SplitIndices,
		Topics:    payload.Topics,
		Reasoning: payload.Reasoning,
	}, nil
}

// ModelName returns the name of the backing model.
func (s *Suggester) ModelName() string {
	return s.modelName
}

// Close releases the underlying API client.
func (s *Suggester) Close() error {
	return s.client.Close()
}

func (s *Suggester) buildPrompt(text string) string {
	return fmt.Sprintf(`You are a document analysis expert.
Analyse the following document text and propose split points that divide it
into topically coherent sections of roughly %d to %d tokens each.

Return ONLY a JSON object of this exact shape:
{
  "split_indices": [<byte offset into the text for each split point>],
  "topics": [<short topic label for each resulting section>],
  "reasoning": [<one-line rationale for each resulting section>]
}

Rules:
- split_indices must be strictly increasing byte offsets inside the text.
- There is always one more section than split point, so topics and reasoning
  have len(split_indices)+1 entries.
- Do not include any prose outside the JSON object.

Document text:
%s`, s.minTokens, s.maxTokens, text)
}

// responseText flattens the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// parsePayload tolerates the model wrapping its JSON in a markdown code
// fence or leading prose despite instructions.
func parsePayload(raw string) (*suggestionPayload, error) {
	cleaned := stripCodeFence(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var payload suggestionPayload
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal suggestion: %w", err)
	}
	return &payload, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence when present.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
