// Package pipeline sequences the ingestion and enrichment stages, persists
// their output, and schedules recurring runs.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/agent"
	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/monitoring"
	"github.com/sells-group/newsdesk/internal/schedule"
	"github.com/sells-group/newsdesk/internal/store"
)

// Result messages.
const (
	MsgNoArticles = "No new articles found"
	MsgFailed     = "Pipeline processing failed"
)

// DefaultInterval applies when StartAutomatic is given no interval.
const DefaultInterval = 10 * time.Minute

// Fetcher is the ingestion stage. Besides single fetches it owns a recurring
// loop that feeds a sink.
type Fetcher interface {
	agent.Agent[model.Place, []model.Article]
	StartLoop(ctx context.Context, place model.Place, interval time.Duration) bool
	StopLoop()
}

// Enricher is a batch enrichment stage.
type Enricher interface {
	agent.Agent[[]model.Article, []model.Article]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source for activity entries and stats.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithBufferLimit caps the in-memory fallback buffer. Zero means no cap.
func WithBufferLimit(n int) Option {
	return func(p *Pipeline) {
		p.buffer.max = n
	}
}

// Pipeline runs fetch, summarize, fact-check and persist for a place.
type Pipeline struct {
	fetcher    Fetcher
	summarizer Enricher
	factCheck  Enricher
	store      store.Store
	collector  *monitoring.Collector
	now        func() time.Time

	buffer   articleBuffer
	activity activityLog

	autoMu   sync.Mutex
	auto     *schedule.Task
	running  atomic.Bool
	skipped  atomic.Int64
	inflight sync.WaitGroup
}

// New creates a Pipeline. st may be nil, in which case every processed
// article is kept in memory.
func New(fetcher Fetcher, summarizer, factCheck Enricher, st store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		summarizer: summarizer,
		factCheck:  factCheck,
		store:      st,
		collector:  monitoring.NewCollector(fetcher, summarizer, factCheck),
		now:        time.Now,
		buffer:     articleBuffer{max: defaultBufferLimit},
		activity:   activityLog{size: activitySize},
		auto:       schedule.NewTask("pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one full pass for place. Stage failures produce an
// unsuccessful result rather than an error.
func (p *Pipeline) Run(ctx context.Context, place model.Place) *model.PipelineResult {
	log := zap.L().With(zap.String("component", "pipeline"), zap.Stringer("place", place))
	log.Info("pipeline: starting run")
	start := time.Now()

	articles, err := p.step(ctx, model.ActivityFetch, place, func(ctx context.Context) ([]model.Article, error) {
		return p.fetcher.Process(ctx, place)
	})
	if err != nil {
		return p.failed(log, err)
	}
	if len(articles) == 0 {
		log.Info("pipeline: no new articles")
		return &model.PipelineResult{Success: true, Message: MsgNoArticles, Articles: []model.Article{}}
	}

	articles, err = p.step(ctx, model.ActivitySummarize, place, func(ctx context.Context) ([]model.Article, error) {
		return p.summarizer.Process(ctx, articles)
	})
	if err != nil {
		return p.failed(log, err)
	}

	articles, err = p.step(ctx, model.ActivityFactCheck, place, func(ctx context.Context) ([]model.Article, error) {
		return p.factCheck.Process(ctx, articles)
	})
	if err != nil {
		return p.failed(log, err)
	}

	p.persist(ctx, place, articles, log)

	log.Info("pipeline: run complete",
		zap.Int("articles", len(articles)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &model.PipelineResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully processed %d articles", len(articles)),
		Articles: articles,
	}
}

func (p *Pipeline) failed(log *zap.Logger, err error) *model.PipelineResult {
	log.Error("pipeline: run failed", zap.Error(err))
	return &model.PipelineResult{Success: false, Message: MsgFailed, Error: err.Error()}
}

// step runs fn and records it in the activity log. A panic in fn becomes
// an error.
func (p *Pipeline) step(ctx context.Context, typ model.ActivityType, place model.Place, fn func(context.Context) ([]model.Article, error)) ([]model.Article, error) {
	entry := model.ActivityEntry{
		ID:        uuid.NewString(),
		Type:      typ,
		Place:     place,
		CreatedAt: p.now().UTC(),
	}

	out, err := recoverStep(ctx, typ, fn)

	entry.CompletedAt = p.now().UTC()
	if err != nil {
		entry.Status = model.ActivityFailed
		entry.Error = err.Error()
	} else {
		entry.Status = model.ActivityCompleted
		entry.ArticleCount = len(out)
	}
	p.activity.add(entry)
	return out, err
}

func recoverStep(ctx context.Context, typ model.ActivityType, fn func(context.Context) ([]model.Article, error)) (out []model.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, eris.Errorf("pipeline: %s panicked: %v", typ, r)
		}
	}()
	out, err = fn(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: %s", typ)
	}
	return out, nil
}

// persist upserts articles into the store, buffering whatever cannot be
// written. It never fails the run.
func (p *Pipeline) persist(ctx context.Context, place model.Place, articles []model.Article, log *zap.Logger) {
	_, _ = p.step(ctx, model.ActivityPersist, place, func(ctx context.Context) ([]model.Article, error) {
		if p.store == nil {
			p.buffer.putAll(articles)
			log.Debug("pipeline: no store, buffered articles", zap.Int("count", len(articles)))
			return articles, nil
		}
		if err := p.store.Ping(ctx); err != nil {
			p.buffer.putAll(articles)
			log.Warn("pipeline: store unavailable, buffered articles",
				zap.Int("count", len(articles)),
				zap.Error(err),
			)
			return articles, nil
		}

		var stored, buffered int
		for _, a := range articles {
			key := model.KeyFor(a)
			if _, err := p.store.UpsertArticle(ctx, key, a); err != nil {
				p.buffer.put(a)
				buffered++
				log.Warn("pipeline: upsert failed, buffered article",
					zap.String("article_id", a.ID),
					zap.String("title", a.Title),
					zap.Error(err),
				)
				continue
			}
			p.buffer.remove(key)
			stored++
		}
		log.Info("pipeline: persisted articles",
			zap.Int("stored", stored),
			zap.Int("buffered", buffered),
		)
		return articles, nil
	})
}

// TransparencyReport returns a freshly computed health snapshot.
func (p *Pipeline) TransparencyReport() *model.TransparencyReport {
	return p.collector.Collect(p.activity.list(), p.skipped.Load())
}
