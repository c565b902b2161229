package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/resilience"
)

const summaryMaxTokens = 150

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Summarizer attaches a short summary to each article.
type Summarizer struct {
	text    TextService
	breaker *resilience.Breaker
	cfg     enricherConfig
	metrics *tracker
}

var _ Agent[[]model.Article, []model.Article] = (*Summarizer)(nil)

// NewSummarizer creates a Summarizer. text may be nil, in which case every
// article gets the extractive summary.
func NewSummarizer(text TextService, opts ...EnricherOption) *Summarizer {
	cfg := defaultEnricherConfig()
	for _, o := range opts {
		o(&cfg)
	}
	m := newTracker(NameSummarizer)
	m.now = cfg.now
	return &Summarizer{
		text:    text,
		breaker: resilience.NewBreaker(NameSummarizer, resilience.DefaultBreakerConfig()),
		cfg:     cfg,
		metrics: m,
	}
}

// Name implements Agent.
func (s *Summarizer) Name() string { return NameSummarizer }

// Metrics implements Agent.
func (s *Summarizer) Metrics() model.AgentMetrics { return s.metrics.snapshot() }

// Process summarizes every article concurrently. The output has one entry
// per input in the same order.
func (s *Summarizer) Process(ctx context.Context, articles []model.Article) ([]model.Article, error) {
	return processBatch(ctx, NameSummarizer, s.cfg, articles, s.summarizeOne)
}

func (s *Summarizer) summarizeOne(ctx context.Context, a model.Article) model.Article {
	return guard(ctx, NameSummarizer, s.metrics, a, func(ctx context.Context) model.Article {
		out := a.Clone()
		out.Summary = s.summary(ctx, a)
		out.Processing.Summarized = true
		out.Processing.ProcessedAt = s.cfg.now().UTC()
		return out
	})
}

func (s *Summarizer) summary(ctx context.Context, a model.Article) string {
	if s.text == nil {
		return extractiveSummary(a.Content)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.callTimeout)
	defer cancel()
	got, err := resilience.Call(callCtx, s.breaker, func(ctx context.Context) (string, error) {
		return s.text.Summarize(ctx, summaryPrompt(a), summaryMaxTokens)
	})
	got = strings.TrimSpace(got)
	if err != nil || got == "" {
		zap.L().Debug("agent: summary fallback",
			zap.String("article_id", a.ID),
			zap.Error(err),
		)
		return extractiveSummary(a.Content)
	}
	return got
}

func summaryPrompt(a model.Article) string {
	return fmt.Sprintf(`Please summarize the following news article in 2-3 sentences, focusing on the key facts and impact:

Title: %s
Content: %s
Source: %s
Location: %s

Provide a clear, concise summary that captures the main points and relevance to local readers.`,
		a.Title, a.Content, a.Source, a.Location)
}

// extractiveSummary keeps the first two sentences of content when it has
// more than two, and returns content unchanged otherwise.
func extractiveSummary(content string) string {
	var sentences []string
	for _, s := range sentenceSplit.Split(content, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 2 {
		return strings.Join(sentences[:2], ". ") + "."
	}
	return content
}
