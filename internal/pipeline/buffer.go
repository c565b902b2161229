package pipeline

import (
	"strconv"
	"sync"

	"github.com/sells-group/newsdesk/internal/model"
)

const (
	defaultBufferLimit = 5000
	activitySize       = 20
)

// articleBuffer holds articles that could not be persisted. Entries are
// keyed like the store, so a re-buffered article replaces its earlier copy.
type articleBuffer struct {
	mu    sync.Mutex
	max   int
	items []model.Article
}

func sameKey(a, b model.UpsertKey) bool {
	return a.Title == b.Title && a.PublishedAt.Equal(b.PublishedAt)
}

// keyString renders k for map lookups, matching sameKey.
func keyString(k model.UpsertKey) string {
	return k.Title + "\x00" + strconv.FormatInt(k.PublishedAt.UnixNano(), 10)
}

func (b *articleBuffer) put(a model.Article) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.putLocked(a)
}

func (b *articleBuffer) putAll(articles []model.Article) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range articles {
		b.putLocked(a)
	}
}

func (b *articleBuffer) putLocked(a model.Article) {
	key := model.KeyFor(a)
	for i := range b.items {
		if sameKey(model.KeyFor(b.items[i]), key) {
			b.items[i] = a.Clone()
			return
		}
	}
	b.items = append(b.items, a.Clone())
	if b.max > 0 && len(b.items) > b.max {
		// Oldest first out.
		b.items = append([]model.Article(nil), b.items[len(b.items)-b.max:]...)
	}
}

func (b *articleBuffer) remove(key model.UpsertKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if sameKey(model.KeyFor(b.items[i]), key) {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

func (b *articleBuffer) snapshot() []model.Article {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Article, len(b.items))
	for i, a := range b.items {
		out[i] = a.Clone()
	}
	return out
}

// activityLog is a fixed-size ring of recent steps, newest first.
type activityLog struct {
	mu      sync.Mutex
	size    int
	entries []model.ActivityEntry
}

func (l *activityLog) add(e model.ActivityEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]model.ActivityEntry{e}, l.entries...)
	if len(l.entries) > l.size {
		l.entries = l.entries[:l.size]
	}
}

func (l *activityLog) list() []model.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ActivityEntry(nil), l.entries...)
}
