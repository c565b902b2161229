package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/newsdesk/internal/model"
)

// --- Store Mock ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) UpsertArticle(ctx context.Context, key model.UpsertKey, a model.Article) (*model.StoredArticle, error) {
	args := m.Called(ctx, key, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredArticle), args.Error(1)
}

func (m *MockStore) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.StoredArticle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoredArticle), args.Error(1)
}

func (m *MockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

// --- Stage fakes ---

// fakeFetcher returns a fixed batch. When gate is set, Process blocks until
// the gate is closed or ctx is done.
type fakeFetcher struct {
	mu         sync.Mutex
	articles   []model.Article
	gate       chan struct{}
	calls      int
	loopStarts int
	loopStops  int
}

func (f *fakeFetcher) Name() string { return "loop" }

func (f *fakeFetcher) Metrics() model.AgentMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.AgentMetrics{Name: "loop", TasksCompleted: int64(f.calls)}
}

func (f *fakeFetcher) Process(ctx context.Context, _ model.Place) ([]model.Article, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	out := append([]model.Article(nil), f.articles...)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return []model.Article{}, nil
		}
	}
	return out, nil
}

func (f *fakeFetcher) StartLoop(context.Context, model.Place, time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loopStarts++
	return true
}

func (f *fakeFetcher) StopLoop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loopStops++
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeEnricher applies fn to each batch and counts calls.
type fakeEnricher struct {
	name string
	fn   func([]model.Article) ([]model.Article, error)

	mu     sync.Mutex
	calls  int
	failed int64
}

func (f *fakeEnricher) Name() string { return f.name }

func (f *fakeEnricher) Metrics() model.AgentMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.AgentMetrics{Name: f.name, TasksCompleted: int64(f.calls), TasksFailed: f.failed}
}

func (f *fakeEnricher) Process(_ context.Context, in []model.Article) ([]model.Article, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn == nil {
		return in, nil
	}
	return f.fn(in)
}

func (f *fakeEnricher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func summarizeAll(in []model.Article) ([]model.Article, error) {
	out := make([]model.Article, len(in))
	for i, a := range in {
		a = a.Clone()
		a.Summary = "summary of " + a.Title
		a.Processing.Summarized = true
		out[i] = a
	}
	return out, nil
}

func scoreAll(score int) func([]model.Article) ([]model.Article, error) {
	return func(in []model.Article) ([]model.Article, error) {
		out := make([]model.Article, len(in))
		for i, a := range in {
			a = a.Clone()
			a.CredibilityScore = score
			a.Status = model.StatusForScore(score)
			a.Processing.FactChecked = true
			out[i] = a
		}
		return out, nil
	}
}
