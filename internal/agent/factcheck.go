package agent

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/resilience"
)

//go:embed sources.yaml
var sourcesYAML []byte

// Content score bounds and adjustments.
const (
	contentDefaultScore  = 70
	contentFallbackBase  = 50
	attributionBonus     = 10
	quoteBonus           = 5
	detailBonus          = 5
	detailThresholdChars = 200
	tagBonus             = 5
)

var firstInt = regexp.MustCompile(`\d+`)

// SourceTable maps outlet names to a credibility score.
type SourceTable struct {
	Default int            `yaml:"default"`
	Sources map[string]int `yaml:"sources"`
}

// Score returns the credibility of source, or the default when unknown.
func (t SourceTable) Score(source string) int {
	if s, ok := t.Sources[source]; ok {
		return s
	}
	return t.Default
}

// ParseSourceTable decodes a YAML source table.
func ParseSourceTable(b []byte) (SourceTable, error) {
	var t SourceTable
	if err := yaml.Unmarshal(b, &t); err != nil {
		return SourceTable{}, err
	}
	return t, nil
}

// DefaultSourceTable returns the table compiled into the binary.
func DefaultSourceTable() SourceTable {
	t, err := ParseSourceTable(sourcesYAML)
	if err != nil {
		panic("agent: embedded sources.yaml: " + err.Error())
	}
	return t
}

// FactCheckerOption configures a FactChecker.
type FactCheckerOption func(*FactChecker)

// WithCrossReferencer replaces the simulated index.
func WithCrossReferencer(x CrossReferencer) FactCheckerOption {
	return func(f *FactChecker) {
		f.xref = x
	}
}

// WithSourceTable replaces the embedded source table.
func WithSourceTable(t SourceTable) FactCheckerOption {
	return func(f *FactChecker) {
		f.sources = t
	}
}

// WithEnricherOptions applies shared enricher options.
func WithEnricherOptions(opts ...EnricherOption) FactCheckerOption {
	return func(f *FactChecker) {
		for _, o := range opts {
			o(&f.cfg)
		}
	}
}

// FactChecker scores each article from source, content, and cross-reference
// signals and attaches a status and short report.
type FactChecker struct {
	text    TextService
	xref    CrossReferencer
	sources SourceTable
	breaker *resilience.Breaker
	cfg     enricherConfig
	metrics *tracker
}

var _ Agent[[]model.Article, []model.Article] = (*FactChecker)(nil)

// NewFactChecker creates a FactChecker. text may be nil, in which case the
// heuristic content score and template reports are used.
func NewFactChecker(text TextService, opts ...FactCheckerOption) *FactChecker {
	f := &FactChecker{
		text:    text,
		xref:    NewSimulatedIndex(nil),
		sources: DefaultSourceTable(),
		breaker: resilience.NewBreaker(NameFactCheck, resilience.DefaultBreakerConfig()),
		cfg:     defaultEnricherConfig(),
	}
	for _, o := range opts {
		o(f)
	}
	f.metrics = newTracker(NameFactCheck)
	f.metrics.now = f.cfg.now
	return f
}

// Name implements Agent.
func (f *FactChecker) Name() string { return NameFactCheck }

// Metrics implements Agent.
func (f *FactChecker) Metrics() model.AgentMetrics { return f.metrics.snapshot() }

// Process fact-checks every article concurrently, preserving order.
func (f *FactChecker) Process(ctx context.Context, articles []model.Article) ([]model.Article, error) {
	return processBatch(ctx, NameFactCheck, f.cfg, articles, f.checkOne)
}

func (f *FactChecker) checkOne(ctx context.Context, a model.Article) model.Article {
	return guard(ctx, NameFactCheck, f.metrics, a, func(ctx context.Context) model.Article {
		src := f.sources.Score(a.Source)
		content := f.contentScore(ctx, a)
		xref, err := f.xref.CrossReference(ctx, a)
		if err != nil {
			zap.L().Warn("agent: cross-reference failed", zap.String("article_id", a.ID), zap.Error(err))
			xref = CrossRefResult{}
		}

		score := compositeScore(src, content, xref)
		out := a.Clone()
		out.CredibilityScore = score
		out.Status = model.StatusForScore(score)
		out.FactCheckReport = f.report(ctx, a, score)
		out.Processing.FactChecked = true
		out.Processing.ProcessedAt = f.cfg.now().UTC()

		zap.L().Debug("agent: fact-check scored",
			zap.String("article_id", a.ID),
			zap.Int("source", src),
			zap.Int("content", content),
			zap.Float64("cross_reference", xref.Score()),
			zap.Int("score", score),
		)
		return out
	})
}

func (f *FactChecker) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.cfg.callTimeout)
	defer cancel()
	got, err := resilience.Call(callCtx, f.breaker, func(ctx context.Context) (string, error) {
		return f.text.Generate(ctx, prompt)
	})
	return strings.TrimSpace(got), err
}

func (f *FactChecker) contentScore(ctx context.Context, a model.Article) int {
	if f.text == nil {
		return heuristicContentScore(a)
	}
	resp, err := f.generate(ctx, contentPrompt(a))
	if err != nil {
		return heuristicContentScore(a)
	}
	return parseContentScore(resp)
}

// parseContentScore reads the first integer in resp, clamped to 0-100.
func parseContentScore(resp string) int {
	m := firstInt.FindString(resp)
	if m == "" {
		return contentDefaultScore
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Digit runs too long for int.
		return 100
	}
	return min(max(n, 0), 100)
}

func heuristicContentScore(a model.Article) int {
	score := contentFallbackBase
	if strings.Contains(a.Content, "according to") || strings.Contains(a.Content, "reported") {
		score += attributionBonus
	}
	if strings.Count(a.Content, `"`) >= 2 {
		score += quoteBonus
	}
	if utf8.RuneCountInString(a.Content) > detailThresholdChars {
		score += detailBonus
	}
	if len(a.Tags) > 0 {
		score += tagBonus
	}
	return min(score, 100)
}

// compositeScore returns round(0.3*src + 0.4*content + 0.3*xref) with
// halves rounded up, computed in integers so .5 cases are exact.
func compositeScore(src, content int, xref CrossRefResult) int {
	base := 3*src + 4*content
	n, d := base, 10
	if xref.Checked > 0 {
		n = xref.Checked*base + 300*xref.Confirmed
		d = 10 * xref.Checked
	}
	if n < 0 {
		return 0
	}
	return (2*n + d) / (2 * d)
}

func (f *FactChecker) report(ctx context.Context, a model.Article, score int) string {
	if f.text != nil {
		if got, err := f.generate(ctx, reportPrompt(a, score)); err == nil && got != "" {
			return got
		}
	}
	return fallbackReport(score)
}

func fallbackReport(score int) string {
	switch {
	case score >= model.VerifiedThreshold:
		return fmt.Sprintf("This article has been verified with high confidence (%d/100). Source credibility and content analysis support the reported facts.", score)
	case score >= model.UnverifiedThreshold:
		return fmt.Sprintf("This article appears credible but requires additional verification (%d/100). Cross-reference with multiple sources recommended.", score)
	default:
		return fmt.Sprintf("This article has credibility concerns (%d/100). Information should be verified through additional reliable sources before sharing.", score)
	}
}

func contentPrompt(a model.Article) string {
	return fmt.Sprintf(`Analyze the following news content for factual accuracy indicators:

Title: %s
Content: %s

Rate the content from 0-100 based on:
1. Presence of specific facts and data
2. Use of quotes and citations
3. Objective tone vs. sensational language
4. Logical consistency

Return only a numerical score.`, a.Title, a.Content)
}

func reportPrompt(a model.Article, score int) string {
	return fmt.Sprintf(`Generate a concise fact-check report for this news article:

Title: %s
Overall Credibility Score: %d/100

Report should include:
1. Key credibility factors
2. Any concerns or limitations
3. Recommendation for readers

Keep it under 3 sentences and professional.`, a.Title, score)
}
