package agent

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/geo"
	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/schedule"
)

const (
	ingestPageSize   = 10
	ingestMaxResults = 5

	// placeholderDropRate is the chance each placeholder is left out.
	placeholderDropRate = 0.3
)

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithRandom sets the float source used to drop placeholders.
func WithRandom(fn func() float64) IngesterOption {
	return func(in *Ingester) {
		in.rand = &lockedRand{fn: fn}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) IngesterOption {
	return func(in *Ingester) {
		in.now = now
		in.metrics.now = now
	}
}

// Ingester fetches and normalizes headlines for a place. When the provider
// is missing or yields nothing usable it synthesizes placeholder articles.
type Ingester struct {
	provider HeadlineProvider
	rand     *lockedRand
	now      func() time.Time
	metrics  *tracker
	loop     *schedule.Task

	sinkMu sync.RWMutex
	sink   Sink
}

var _ Agent[model.Place, []model.Article] = (*Ingester)(nil)

// NewIngester creates an Ingester. provider may be nil.
func NewIngester(provider HeadlineProvider, opts ...IngesterOption) *Ingester {
	in := &Ingester{
		provider: provider,
		rand:     &lockedRand{fn: rand.Float64},
		now:      time.Now,
		metrics:  newTracker(NameLoop),
		loop:     schedule.NewTask("ingest-loop"),
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Name implements Agent.
func (in *Ingester) Name() string { return NameLoop }

// Metrics implements Agent.
func (in *Ingester) Metrics() model.AgentMetrics { return in.metrics.snapshot() }

// Process implements Agent. It never returns an error; see Fetch.
func (in *Ingester) Process(ctx context.Context, place model.Place) ([]model.Article, error) {
	return in.Fetch(ctx, place), nil
}

// Fetch returns at most five articles for place. An invalid place, a
// cancelled context, or a panic yields an empty list and a failed task.
func (in *Ingester) Fetch(ctx context.Context, place model.Place) (out []model.Article) {
	log := zap.L().With(zap.String("component", NameLoop), zap.Stringer("place", place))
	in.metrics.begin()
	defer func() {
		if r := recover(); r != nil {
			log.Error("agent: ingest panic", zap.Any("panic", r))
			in.metrics.finish(false)
			out = []model.Article{}
		}
	}()

	if !place.Valid() {
		log.Warn("agent: ingest rejected", zap.Error(eris.New("agent: city and country are required")))
		in.metrics.finish(false)
		return []model.Article{}
	}
	if err := ctx.Err(); err != nil {
		in.metrics.finish(false)
		return []model.Article{}
	}

	articles := in.fromProvider(ctx, place, log)
	if ctx.Err() != nil {
		in.metrics.finish(false)
		return []model.Article{}
	}
	if len(articles) == 0 {
		articles = in.placeholders(place)
		log.Info("agent: using placeholder articles", zap.Int("count", len(articles)))
	}

	in.metrics.finish(true)
	log.Info("agent: ingest complete", zap.Int("articles", len(articles)))
	return articles
}

func (in *Ingester) fromProvider(ctx context.Context, place model.Place, log *zap.Logger) []model.Article {
	if in.provider == nil {
		return nil
	}
	headlines, err := in.provider.ListHeadlines(ctx, place.City, place.Country, ingestPageSize)
	if err != nil {
		log.Warn("agent: provider failed, falling back", zap.Error(err))
		return nil
	}

	geotag := geo.Lookup(place.City)
	out := make([]model.Article, 0, ingestMaxResults)
	for _, h := range headlines {
		if len(out) == ingestMaxResults {
			break
		}
		desc := stripHTML(h.Description)
		if h.Title == "" || desc == "" {
			continue
		}
		a := model.Article{
			ID:          h.ID,
			Title:       h.Title,
			Content:     desc,
			Source:      h.SourceName,
			URL:         h.URL,
			PublishedAt: h.PublishedAt,
			Location:    place,
			Tags:        extractTags(h.Title + " " + desc),
		}
		if a.Source == "" {
			a.Source = "Unknown Source"
		}
		if a.PublishedAt.IsZero() {
			a.PublishedAt = in.now().UTC()
		}
		if geotag != nil {
			g := *geotag
			a.Geotag = &g
		}
		out = append(out, a)
	}
	return out
}

type placeholderTemplate struct {
	title   string
	content string
	source  string
	path    string
	tags    []string
}

var placeholderTemplates = []placeholderTemplate{
	{
		title:   "Breaking: Local Development Project Approved in %s",
		content: "City council unanimously approved the new community center project that will bring modern facilities to the downtown area.",
		source:  "Local News Network",
		path:    "news",
		tags:    []string{"development", "community", "government"},
	},
	{
		title:   "Weather Alert: Severe Storms Expected in %s Area",
		content: "Meteorologists warn of potential severe weather conditions including heavy rain and strong winds expected this weekend.",
		source:  "Weather Service",
		path:    "weather",
		tags:    []string{"weather", "alert", "safety"},
	},
	{
		title:   "Local Business Initiative Supports %s Economy",
		content: "New partnership between local businesses aims to boost economic growth and create job opportunities for residents.",
		source:  "Business Journal",
		path:    "business",
		tags:    []string{"business", "economy", "jobs"},
	},
}

// placeholders builds the fallback batch. Each template is kept
// independently with probability 1-placeholderDropRate.
func (in *Ingester) placeholders(place model.Place) []model.Article {
	now := in.now().UTC()
	ms := now.UnixMilli()
	geotag := geo.Lookup(place.City)

	out := make([]model.Article, 0, len(placeholderTemplates))
	for i, t := range placeholderTemplates {
		if in.rand.Float64() <= placeholderDropRate {
			continue
		}
		a := model.Article{
			ID:          fmt.Sprintf("news-%d-%d", ms, i+1),
			Title:       fmt.Sprintf(t.title, place.City),
			Content:     t.content,
			Source:      t.source,
			URL:         fmt.Sprintf("https://example.com/%s/%d", t.path, ms),
			PublishedAt: now,
			Location:    place,
			Tags:        append([]string(nil), t.tags...),
		}
		if geotag != nil {
			g := *geotag
			a.Geotag = &g
		}
		out = append(out, a)
	}
	return out
}

// SetSink registers where loop batches are delivered. A nil sink discards
// them.
func (in *Ingester) SetSink(s Sink) {
	in.sinkMu.Lock()
	defer in.sinkMu.Unlock()
	in.sink = s
}

func (in *Ingester) currentSink() Sink {
	in.sinkMu.RLock()
	defer in.sinkMu.RUnlock()
	return in.sink
}

// StartLoop fetches for place every interval and forwards each batch to the
// sink. It returns false if the loop is already running or interval is not
// positive.
func (in *Ingester) StartLoop(ctx context.Context, place model.Place, interval time.Duration) bool {
	started := in.loop.Start(ctx, interval, func(ctx context.Context) {
		articles := in.Fetch(ctx, place)
		sink := in.currentSink()
		if sink == nil || len(articles) == 0 {
			return
		}
		if err := sink.Publish(ctx, place, articles); err != nil {
			zap.L().Warn("agent: sink publish failed",
				zap.String("component", NameLoop),
				zap.Stringer("place", place),
				zap.Error(err),
			)
		}
	})
	if started {
		zap.L().Info("agent: ingest loop started",
			zap.Stringer("place", place),
			zap.Duration("interval", interval),
		)
	}
	return started
}

// StopLoop stops the loop. It is safe to call when the loop is not running.
func (in *Ingester) StopLoop() {
	in.loop.Stop()
}

// LoopRunning reports whether the loop is active.
func (in *Ingester) LoopRunning() bool {
	return in.loop.Running()
}
