package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>City Herald</title>
  <link>https://herald.example.com</link>
  <description>Local news</description>
  <item>
    <title>Madrid metro expands</title>
    <link>https://herald.example.com/1</link>
    <description>New line opens in &lt;b&gt;Madrid&lt;/b&gt;.</description>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Spain budget approved</title>
    <link>https://herald.example.com/2</link>
    <description>Parliament votes.</description>
    <pubDate>Tue, 03 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Lisbon tram fares rise</title>
    <link>https://herald.example.com/3</link>
    <description>Unrelated.</description>
    <pubDate>Wed, 04 Mar 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Madrid metro expands</title>
    <link>https://herald.example.com/1</link>
    <description>Duplicate entry for Madrid.</description>
    <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListHeadlines_FiltersByPlace(t *testing.T) {
	srv := newFeedServer(t)
	p := NewProvider([]string{srv.URL + "/rss"})

	got, err := p.ListHeadlines(context.Background(), "Madrid", "Spain", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// newest first
	assert.Equal(t, "Spain budget approved", got[0].Title)
	assert.Equal(t, "Madrid metro expands", got[1].Title)
	assert.Equal(t, "City Herald", got[1].SourceName)
	assert.Equal(t, "https://herald.example.com/1", got[1].URL)
	assert.NotEmpty(t, got[1].ID)
}

func TestListHeadlines_PageSize(t *testing.T) {
	srv := newFeedServer(t)
	p := NewProvider([]string{srv.URL + "/rss"})

	got, err := p.ListHeadlines(context.Background(), "Madrid", "Spain", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListHeadlines_SkipsFailingFeed(t *testing.T) {
	srv := newFeedServer(t)
	p := NewProvider([]string{srv.URL + "/missing", srv.URL + "/rss"})

	got, err := p.ListHeadlines(context.Background(), "Madrid", "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListHeadlines_AllFeedsFail(t *testing.T) {
	srv := newFeedServer(t)
	p := NewProvider([]string{srv.URL + "/missing"})

	_, err := p.ListHeadlines(context.Background(), "Madrid", "Spain", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all feeds failed")
}

func TestListHeadlines_NoURLs(t *testing.T) {
	_, err := NewProvider(nil).ListHeadlines(context.Background(), "Madrid", "Spain", 10)
	require.Error(t, err)
}
