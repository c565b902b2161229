package agent

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/newsdesk/internal/model"
)

const defaultCallTimeout = 30 * time.Second

// EnricherOption configures the Summarizer and FactChecker.
type EnricherOption func(*enricherConfig)

type enricherConfig struct {
	callTimeout time.Duration
	concurrency int
	now         func() time.Time
}

func defaultEnricherConfig() enricherConfig {
	return enricherConfig{callTimeout: defaultCallTimeout, now: time.Now}
}

// WithCallTimeout bounds each text service call.
func WithCallTimeout(d time.Duration) EnricherOption {
	return func(c *enricherConfig) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithConcurrency caps in-flight articles per batch. Zero means unbounded.
func WithConcurrency(n int) EnricherOption {
	return func(c *enricherConfig) {
		c.concurrency = n
	}
}

// WithEnricherClock overrides time.Now for ProcessedAt stamps.
func WithEnricherClock(now func() time.Time) EnricherOption {
	return func(c *enricherConfig) {
		c.now = now
	}
}

// processBatch runs one per article concurrently and keeps input order. A
// batch-level cancellation is reported after every article has settled.
func processBatch(ctx context.Context, stage string, cfg enricherConfig, in []model.Article, one func(context.Context, model.Article) model.Article) ([]model.Article, error) {
	out := make([]model.Article, len(in))
	var g errgroup.Group
	if cfg.concurrency > 0 {
		g.SetLimit(cfg.concurrency)
	}
	for i, a := range in {
		g.Go(func() error {
			out[i] = one(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, eris.Wrapf(err, "agent: %s batch", stage)
	}
	zap.L().Info("agent: batch complete", zap.String("component", stage), zap.Int("articles", len(out)))
	return out, nil
}

// guard runs fn for a single article under the stage's metrics. A cancelled
// context or a panic counts as a failure and returns the input unchanged.
func guard(ctx context.Context, stage string, t *tracker, a model.Article, fn func(context.Context) model.Article) (res model.Article) {
	t.begin()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("agent: article panic",
				zap.String("component", stage),
				zap.String("article_id", a.ID),
				zap.Any("panic", r),
			)
			t.finish(false)
			res = a
		}
	}()

	if ctx.Err() != nil {
		t.finish(false)
		return a
	}
	out := fn(ctx)
	if ctx.Err() != nil {
		t.finish(false)
		return a
	}
	t.finish(true)
	return out
}
