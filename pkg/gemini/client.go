// Package gemini provides a text generation client backed by Google's
// Gemini models.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// generator is the subset of *genai.GenerativeModel used here.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// TextService implements Summarize and Generate over Gemini.
type TextService struct {
	client   *genai.Client
	newModel func(maxTokens int32) generator
}

// NewTextService dials Gemini with apiKey. Close releases the connection.
func NewTextService(ctx context.Context, apiKey, model string) (*TextService, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: new client")
	}
	return &TextService{
		client: client,
		newModel: func(maxTokens int32) generator {
			m := client.GenerativeModel(model)
			if maxTokens > 0 {
				m.SetMaxOutputTokens(maxTokens)
			}
			return m
		},
	}, nil
}

// Close releases the underlying client.
func (s *TextService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Summarize asks the model to condense text within maxTokens.
func (s *TextService) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	return s.complete(ctx, "summarize", text, int32(maxTokens))
}

// Generate returns the model's completion of prompt.
func (s *TextService) Generate(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, "generate", prompt, 0)
}

func (s *TextService) complete(ctx context.Context, stage, prompt string, maxTokens int32) (string, error) {
	resp, err := s.newModel(maxTokens).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", eris.Wrapf(err, "gemini: %s", stage)
	}
	text := responseText(resp)
	if text == "" {
		return "", eris.Errorf("gemini: %s: empty response", stage)
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
