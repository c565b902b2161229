package store

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
)

// DeferredMigration wraps a store whose schema could not be migrated yet.
// Ping retries the migration until it succeeds, so a database that comes
// back after startup is put to use on the next run.
type DeferredMigration struct {
	Store

	mu       sync.Mutex
	migrated bool
}

// NewDeferredMigration wraps st. Migrate is attempted on the first Ping
// that reaches the database.
func NewDeferredMigration(st Store) *DeferredMigration {
	return &DeferredMigration{Store: st}
}

// Ping checks the database and, on the first success, applies the schema.
func (d *DeferredMigration) Ping(ctx context.Context) error {
	if err := d.Store.Ping(ctx); err != nil {
		return err
	}
	return d.ensureMigrated(ctx)
}

// ListArticles fails until the schema exists.
func (d *DeferredMigration) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.StoredArticle, error) {
	if err := d.ensureMigrated(ctx); err != nil {
		return nil, err
	}
	return d.Store.ListArticles(ctx, filter)
}

// Migrate applies the schema now.
func (d *DeferredMigration) Migrate(ctx context.Context) error {
	return d.ensureMigrated(ctx)
}

func (d *DeferredMigration) ensureMigrated(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.migrated {
		return nil
	}
	if err := d.Store.Migrate(ctx); err != nil {
		return eris.Wrap(err, "store: deferred migrate")
	}
	d.migrated = true
	zap.L().Info("store: deferred migration applied")
	return nil
}
