// Package sink delivers batches produced by the ingestion loop.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
)

// Sink receives a batch of articles fetched for a place.
type Sink interface {
	Publish(ctx context.Context, place model.Place, articles []model.Article) error
}

// Batch is the message published for each loop tick.
type Batch struct {
	Place       model.Place     `json:"place"`
	Articles    []model.Article `json:"articles"`
	PublishedAt time.Time       `json:"published_at"`
}

// LogSink logs a one-line summary of each batch.
type LogSink struct{}

// Publish implements Sink.
func (LogSink) Publish(_ context.Context, place model.Place, articles []model.Article) error {
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	zap.L().Info("sink: batch received",
		zap.Stringer("place", place),
		zap.Int("articles", len(articles)),
		zap.Strings("ids", ids),
	)
	return nil
}

// RedisSink publishes each batch as JSON on a pub/sub channel.
type RedisSink struct {
	client  redis.Cmdable
	channel string
	now     func() time.Time
}

// NewRedisSink creates a RedisSink on channel.
func NewRedisSink(client redis.Cmdable, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel, now: time.Now}
}

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, place model.Place, articles []model.Article) error {
	payload, err := s.encode(place, articles)
	if err != nil {
		return err
	}
	receivers, err := s.client.Publish(ctx, s.channel, payload).Result()
	if err != nil {
		return eris.Wrapf(err, "sink: publish to %s", s.channel)
	}
	zap.L().Debug("sink: batch published",
		zap.String("channel", s.channel),
		zap.Int("articles", len(articles)),
		zap.Int64("receivers", receivers),
	)
	return nil
}

func (s *RedisSink) encode(place model.Place, articles []model.Article) (string, error) {
	b, err := json.Marshal(Batch{Place: place, Articles: articles, PublishedAt: s.now().UTC()})
	if err != nil {
		return "", eris.Wrap(err, "sink: marshal batch")
	}
	return string(b), nil
}

// Multi fans a batch out to several sinks. Every sink is attempted; the
// first error is returned.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, place model.Place, articles []model.Article) error {
	var first error
	for _, s := range m {
		if err := s.Publish(ctx, place, articles); err != nil && first == nil {
			first = err
		}
	}
	return first
}
