// Package agent implements the ingestion and enrichment stages of the news
// pipeline. Each stage keeps its own operational metrics and fails open: a
// failing article passes through unchanged instead of aborting its batch.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/newsdesk/internal/model"
)

// Stage names used as keys in the transparency report.
const (
	NameLoop       = "loop"
	NameSummarizer = "summarizer"
	NameFactCheck  = "fact_check"
)

// Agent is a pipeline stage that turns In into Out and reports metrics.
type Agent[In, Out any] interface {
	Name() string
	Process(ctx context.Context, in In) (Out, error)
	Metrics() model.AgentMetrics
}

// HeadlineProvider lists raw headlines for a place.
type HeadlineProvider interface {
	ListHeadlines(ctx context.Context, city, country string, pageSize int) ([]model.Headline, error)
}

// TextService is a generative text backend.
type TextService interface {
	Summarize(ctx context.Context, text string, maxTokens int) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Sink receives batches produced by the ingestion loop.
type Sink interface {
	Publish(ctx context.Context, place model.Place, articles []model.Article) error
}

// tracker guards a stage's counters.
type tracker struct {
	mu  sync.Mutex
	m   model.AgentMetrics
	now func() time.Time
}

func newTracker(name string) *tracker {
	return &tracker{m: model.AgentMetrics{Name: name}, now: time.Now}
}

func (t *tracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.TasksInProgress++
}

// finish closes a task opened by begin.
func (t *tracker) finish(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m.TasksInProgress > 0 {
		t.m.TasksInProgress--
	}
	if ok {
		t.m.TasksCompleted++
	} else {
		t.m.TasksFailed++
	}
	t.m.LastActive = t.now()
}

func (t *tracker) snapshot() model.AgentMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m
}

// lockedRand serializes a float source shared by concurrent calls.
type lockedRand struct {
	mu sync.Mutex
	fn func() float64
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fn()
}
