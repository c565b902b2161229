package pipeline

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/newsdesk/internal/model"
)

// Articles returns the accumulated article set, stored articles first and
// then the in-memory buffer, filtered, ranked by SortKey and limited.
func (p *Pipeline) Articles(ctx context.Context, filter model.ArticleFilter) []model.Article {
	all := p.accumulated(ctx, filter.MinCredibility)

	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(filter.Location))

	out := make([]model.Article, 0, len(all))
	for _, a := range all {
		if query != "" && !matchesLocation(fold, a.Location, query) {
			continue
		}
		if a.CredibilityScore < filter.MinCredibility {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortKey() > out[j].SortKey()
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = model.DefaultArticleLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesLocation(fold cases.Caser, place model.Place, query string) bool {
	return strings.Contains(fold.String(place.City), query) ||
		strings.Contains(fold.String(place.Country), query)
}

// accumulated lists every known article with a score of at least
// minCredibility. A stored row sharing an upsert key with a buffered article
// is replaced by the buffered copy. A store error degrades to the buffer
// alone.
func (p *Pipeline) accumulated(ctx context.Context, minCredibility int) []model.Article {
	buffered := p.buffer.snapshot()
	if p.store == nil {
		return buffered
	}

	stored, err := p.store.ListArticles(ctx, model.ArticleFilter{MinCredibility: minCredibility})
	if err != nil {
		zap.L().Warn("pipeline: list stored articles failed, using buffer only", zap.Error(err))
		return buffered
	}

	pending := make(map[string]struct{}, len(buffered))
	for _, a := range buffered {
		pending[keyString(model.KeyFor(a))] = struct{}{}
	}
	out := make([]model.Article, 0, len(stored)+len(buffered))
	for _, s := range stored {
		if _, ok := pending[keyString(model.KeyFor(s.Article))]; ok {
			continue
		}
		out = append(out, s.Article)
	}
	return append(out, buffered...)
}

// DatabaseStats summarizes the whole accumulated set.
func (p *Pipeline) DatabaseStats(ctx context.Context) model.DatabaseStats {
	all := p.accumulated(ctx, 0)
	stats := model.DatabaseStats{TotalArticles: len(all)}
	if len(all) == 0 {
		stats.LastUpdated = p.now().UTC()
		return stats
	}

	var sum int
	for _, a := range all {
		sum += a.CredibilityScore
		if a.Status == model.StatusVerified {
			stats.VerifiedArticles++
		}
		if a.PublishedAt.After(stats.LastUpdated) {
			stats.LastUpdated = a.PublishedAt
		}
	}
	stats.AvgCredibility = int(math.Round(float64(sum) / float64(len(all))))
	return stats
}
