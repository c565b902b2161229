// Package store persists enriched articles.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/newsdesk/internal/db"
	"github.com/sells-group/newsdesk/internal/geo"
	"github.com/sells-group/newsdesk/internal/model"
)

// Store defines the persistence interface for articles.
type Store interface {
	Ping(ctx context.Context) error

	// UpsertArticle inserts a or replaces the article stored under key.
	UpsertArticle(ctx context.Context, key model.UpsertKey, a model.Article) (*model.StoredArticle, error)
	// ListArticles returns stored articles, newest first. A zero Limit
	// returns every match.
	ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.StoredArticle, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	case "sqlite":
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

const articlesTable = "articles"

var articleColumns = []string{
	"id", "title", "content", "summary", "source", "url", "published_at",
	"city", "country", "geotag", "tags",
	"credibility_score", "fact_check_status", "fact_check_report",
	"summarized", "fact_checked", "processed_at",
	"created_at", "updated_at",
}

var upsertConfig = db.UpsertConfig{
	Table:        articlesTable,
	Columns:      articleColumns,
	ConflictKeys: []string{"title", "published_at"},
	UpdateCols: []string{
		"id", "content", "summary", "source", "url",
		"city", "country", "geotag", "tags",
		"credibility_score", "fact_check_status", "fact_check_report",
		"summarized", "fact_checked", "processed_at", "updated_at",
	},
	Returning: []string{"created_at", "updated_at"},
}

// articleArgs returns bind values in articleColumns order.
func articleArgs(key model.UpsertKey, a model.Article, now time.Time) ([]any, error) {
	geotag, err := geo.EncodeGeotag(a.Geotag)
	if err != nil {
		return nil, err
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal tags")
	}
	return []any{
		a.ID, key.Title, a.Content, a.Summary, a.Source, a.URL, key.PublishedAt.UTC(),
		a.Location.City, a.Location.Country, geotag, string(tagsJSON),
		a.CredibilityScore, string(a.Status), a.FactCheckReport,
		a.Processing.Summarized, a.Processing.FactChecked, a.Processing.ProcessedAt.UTC(),
		now, now,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArticle(row scannable) (*model.StoredArticle, error) {
	var (
		sa       model.StoredArticle
		geotag   []byte
		tagsJSON []byte
		status   string
	)
	a := &sa.Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Summary, &a.Source, &a.URL, &a.PublishedAt,
		&a.Location.City, &a.Location.Country, &geotag, &tagsJSON,
		&a.CredibilityScore, &status, &a.FactCheckReport,
		&a.Processing.Summarized, &a.Processing.FactChecked, &a.Processing.ProcessedAt,
		&sa.CreatedAt, &sa.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = model.FactCheckStatus(status)
	if a.Geotag, err = geo.DecodeGeotag(geotag); err != nil {
		return nil, err
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &a.Tags); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal tags")
		}
	}
	return &sa, nil
}
