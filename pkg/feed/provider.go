// Package feed lists location headlines from configured RSS/Atom feeds.
package feed

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
)

// Provider parses a fixed set of feeds and keeps items mentioning a place.
type Provider struct {
	urls   []string
	parser *gofeed.Parser
}

// NewProvider creates a Provider over urls.
func NewProvider(urls []string) *Provider {
	p := gofeed.NewParser()
	p.UserAgent = "newsdesk/1.0"
	return &Provider{urls: urls, parser: p}
}

// ListHeadlines returns up to pageSize items whose title or description
// mentions city or country, newest first. Feeds that fail to parse are
// skipped; an error is returned only when every feed fails.
func (p *Provider) ListHeadlines(ctx context.Context, city, country string, pageSize int) ([]model.Headline, error) {
	if len(p.urls) == 0 {
		return nil, eris.New("feed: no feed urls configured")
	}

	var (
		out    []model.Headline
		seen   = make(map[string]bool)
		failed int
		last   error
	)
	for _, u := range p.urls {
		f, err := p.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "feed: parse")
			}
			zap.L().Warn("feed: parse failed", zap.String("url", u), zap.Error(err))
			failed++
			last = err
			continue
		}
		for _, item := range f.Items {
			if item == nil || !mentions(item, city, country) {
				continue
			}
			key := item.Link
			if key == "" {
				key = item.GUID
			}
			if key != "" && seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, toHeadline(f, item))
		}
	}
	if failed == len(p.urls) {
		return nil, eris.Wrap(last, "feed: all feeds failed")
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if pageSize > 0 && len(out) > pageSize {
		out = out[:pageSize]
	}
	return out, nil
}

func mentions(item *gofeed.Item, city, country string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)
	if city != "" && strings.Contains(text, strings.ToLower(city)) {
		return true
	}
	return country != "" && strings.Contains(text, strings.ToLower(country))
}

func toHeadline(f *gofeed.Feed, item *gofeed.Item) model.Headline {
	published := time.Now().UTC()
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}
	desc := item.Description
	if desc == "" {
		desc = item.Content
	}
	return model.Headline{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(item.Title),
		Description: desc,
		URL:         item.Link,
		PublishedAt: published,
		SourceName:  f.Title,
	}
}
