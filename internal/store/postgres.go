package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/newsdesk/internal/db"
	"github.com/sells-group/newsdesk/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS articles (
	id                TEXT NOT NULL,
	title             TEXT NOT NULL,
	content           TEXT NOT NULL DEFAULT '',
	summary           TEXT NOT NULL DEFAULT '',
	source            TEXT NOT NULL DEFAULT '',
	url               TEXT NOT NULL DEFAULT '',
	published_at      TIMESTAMPTZ NOT NULL,
	city              TEXT NOT NULL DEFAULT '',
	country           TEXT NOT NULL DEFAULT '',
	geotag            BYTEA,
	tags              JSONB NOT NULL DEFAULT '[]',
	credibility_score INTEGER NOT NULL DEFAULT 0,
	fact_check_status TEXT NOT NULL DEFAULT '',
	fact_check_report TEXT NOT NULL DEFAULT '',
	summarized        BOOLEAN NOT NULL DEFAULT false,
	fact_checked      BOOLEAN NOT NULL DEFAULT false,
	processed_at      TIMESTAMPTZ NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (title, published_at)
);

CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_city ON articles(city);
CREATE INDEX IF NOT EXISTS idx_articles_credibility ON articles(credibility_score);
`

// Migrate creates the articles table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertArticle implements Store.
func (s *PostgresStore) UpsertArticle(ctx context.Context, key model.UpsertKey, a model.Article) (*model.StoredArticle, error) {
	query, err := db.UpsertSQL(upsertConfig, db.Dollar)
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
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert article %q", key.Title)
	}
	return out, nil
}

// ListArticles implements Store. Location matches city or country
// case-insensitively.
func (s *PostgresStore) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.StoredArticle, error) {
	q := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(articleColumns...).
		From(articlesTable).
		OrderBy("published_at DESC")
	if filter.Location != "" {
		like := "%" + filter.Location + "%"
		q = q.Where(sq.Or{sq.ILike{"city": like}, sq.ILike{"country": like}})
	}
	if filter.MinCredibility > 0 {
		q = q.Where(sq.GtOrEq{"credibility_score": filter.MinCredibility})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list query")
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list articles")
	}
	defer rows.Close()

	var out []model.StoredArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan article")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate articles")
}
