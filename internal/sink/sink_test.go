package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsdesk/internal/model"
)

var (
	place    = model.Place{City: "Rome", Country: "IT"}
	articles = []model.Article{{ID: "a1", Title: "Tiber floods", Location: place, Tags: []string{"flood"}}}
	fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func newTestSink(t *testing.T) (*RedisSink, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	s := NewRedisSink(db, "newsdesk:articles")
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestRedisSink_Publish(t *testing.T) {
	s, mock := newTestSink(t)
	payload, err := s.encode(place, articles)
	require.NoError(t, err)
	assert.Contains(t, payload, `"city":"Rome"`)
	assert.Contains(t, payload, `"published_at":"2026-03-01T09:00:00Z"`)

	mock.ExpectPublish("newsdesk:articles", payload).SetVal(2)
	require.NoError(t, s.Publish(context.Background(), place, articles))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSink_PublishError(t *testing.T) {
	s, mock := newTestSink(t)
	payload, err := s.encode(place, articles)
	require.NoError(t, err)

	mock.ExpectPublish("newsdesk:articles", payload).SetErr(errors.New("connection refused"))
	err = s.Publish(context.Background(), place, articles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink: publish to newsdesk:articles")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogSink_Publish(t *testing.T) {
	assert.NoError(t, LogSink{}.Publish(context.Background(), place, articles))
}

type failingSink struct{ calls int }

func (f *failingSink) Publish(context.Context, model.Place, []model.Article) error {
	f.calls++
	return errors.New("nope")
}

func TestMulti_Publish(t *testing.T) {
	a, b := &failingSink{}, &failingSink{}
	err := Multi{a, LogSink{}, b}.Publish(context.Background(), place, articles)
	require.Error(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.NoError(t, Multi{LogSink{}}.Publish(context.Background(), place, articles))
}
