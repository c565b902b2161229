package store

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/newsdesk/internal/db"
	"github.com/sells-group/newsdesk/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS articles (
	id                TEXT NOT NULL,
	title             TEXT NOT NULL,
	content           TEXT NOT NULL DEFAULT '',
	summary           TEXT NOT NULL DEFAULT '',
	source            TEXT NOT NULL DEFAULT '',
	url               TEXT NOT NULL DEFAULT '',
	published_at      DATETIME NOT NULL,
	city              TEXT NOT NULL DEFAULT '',
	country           TEXT NOT NULL DEFAULT '',
	geotag            BLOB,
	tags              TEXT NOT NULL DEFAULT '[]',
	credibility_score INTEGER NOT NULL DEFAULT 0,
	fact_check_status TEXT NOT NULL DEFAULT '',
	fact_check_report TEXT NOT NULL DEFAULT '',
	summarized        BOOLEAN NOT NULL DEFAULT 0,
	fact_checked      BOOLEAN NOT NULL DEFAULT 0,
	processed_at      DATETIME NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (title, published_at)
);

CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
CREATE INDEX IF NOT EXISTS idx_articles_city ON articles(city);
`

// Migrate creates the articles table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping checks the database is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertArticle implements Store.
func (s *SQLiteStore) UpsertArticle(ctx context.Context, key model.UpsertKey, a model.Article) (*model.StoredArticle, error) {
	query, err := db.UpsertSQL(upsertConfig, db.Question)
	if err != nil {
		return nil, err
	}
	args, err := articleArgs(key, a, s.now().UTC())
	if err != nil {
		return nil, err
	}

	out := &model.StoredArticle{Article: a}
	out.Title = key.Title
	out.PublishedAt = key.PublishedAt.UTC()
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert article %q", key.Title)
	}
	return out, nil
}

// ListArticles implements Store. LIKE in SQLite ignores ASCII case.
func (s *SQLiteStore) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.StoredArticle, error) {
	q := sq.Select(articleColumns...).
		From(articlesTable).
		OrderBy("published_at DESC")
	if filter.Location != "" {
		like := "%" + filter.Location + "%"
		q = q.Where(sq.Or{sq.Like{"city": like}, sq.Like{"country": like}})
	}
	if filter.MinCredibility > 0 {
		q = q.Where(sq.GtOrEq{"credibility_score": filter.MinCredibility})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list query")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list articles")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.StoredArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan article")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate articles")
}
