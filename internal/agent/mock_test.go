package agent

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/newsdesk/internal/model"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ListHeadlines(ctx context.Context, city, country string, pageSize int) ([]model.Headline, error) {
	args := m.Called(ctx, city, country, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Headline), args.Error(1)
}

type MockTextService struct {
	mock.Mock
}

func (m *MockTextService) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	args := m.Called(ctx, text, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockTextService) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// panicProvider panics on every call.
type panicProvider struct{}

func (panicProvider) ListHeadlines(context.Context, string, string, int) ([]model.Headline, error) {
	panic("provider exploded")
}

// recordingSink collects published batches.
type recordingSink struct {
	mu      sync.Mutex
	batches [][]model.Article
}

func (s *recordingSink) Publish(_ context.Context, _ model.Place, articles []model.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, articles)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

type fixedIndex struct {
	res CrossRefResult
	err error
}

func (f fixedIndex) CrossReference(context.Context, model.Article) (CrossRefResult, error) {
	return f.res, f.err
}

func constRand(v float64) func() float64 {
	return func() float64 { return v }
}
