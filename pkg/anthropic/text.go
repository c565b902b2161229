package anthropic

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	defaultModel          = "claude-haiku-4-5-20251001"
	defaultGenerateTokens = 512
)

// TextService adapts a Client to the summarize/generate operations the
// enrichment stages call.
type TextService struct {
	client Client
	model  string
}

// NewTextService returns a TextService using model, or the default Haiku
// model when model is empty.
func NewTextService(client Client, model string) *TextService {
	if model == "" {
		model = defaultModel
	}
	return &TextService{client: client, model: model}
}

// Summarize asks the model to condense text within maxTokens.
func (s *TextService) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return s.complete(ctx, "summarize", text, int64(maxTokens))
}

// Generate returns the model's completion of prompt.
func (s *TextService) Generate(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, "generate", prompt, defaultGenerateTokens)
}

func (s *TextService) complete(ctx context.Context, stage, prompt string, maxTokens int64) (string, error) {
	resp, err := s.client.CreateMessage(ctx, MessageRequest{
		Model:     s.model,
		MaxTokens: maxTokens,
		Messages:  []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrapf(err, "anthropic: %s", stage)
	}
	resp.Usage.LogCost(s.model, stage)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.Errorf("anthropic: %s: empty response", stage)
	}
	return text, nil
}
