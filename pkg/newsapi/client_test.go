package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsdesk/internal/resilience"
)

func fastRetry() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
		Service:   "newsapi",
		Operation: "everything",
	}
}

func TestListHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, `Miami OR "Miami"`, r.URL.Query().Get("q"))
		assert.Equal(t, "publishedAt", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 2,
			"articles": [
				{"source": {"name": "Miami Herald"}, "title": "Storm nears", "description": "Rain <b>heavy</b>",
				 "url": "https://example.com/a", "publishedAt": "2026-03-01T12:00:00Z"},
				{"source": {"name": "WSVN"}, "title": "Port opens", "description": "", "content": "Full content",
				 "url": "https://example.com/b", "publishedAt": "2026-03-01T11:00:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0), WithRetryPolicy(fastRetry()))
	got, err := c.ListHeadlines(context.Background(), "Miami", "US", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Storm nears", got[0].Title)
	assert.Equal(t, "Miami Herald", got[0].SourceName)
	assert.Equal(t, "Rain <b>heavy</b>", got[0].Description)
	assert.True(t, got[0].PublishedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, "Full content", got[1].Description)
}

func TestListHeadlines_NoAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.ListHeadlines(context.Background(), "Miami", "US", 10)
	assert.True(t, eris.Is(err, ErrNoAPIKey))
}

func TestListHeadlines_RequiresCity(t *testing.T) {
	c := NewClient("k")
	_, err := c.ListHeadlines(context.Background(), "", "US", 10)
	require.Error(t, err)
}

func TestListHeadlines_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","articles":[{"title":"t","description":"d"}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(0), WithRetryPolicy(fastRetry()))
	got, err := c.ListHeadlines(context.Background(), "Tokyo", "JP", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListHeadlines_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   string
		wantCalls int32
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"status":"error"}`, wantErr: "unexpected status 401", wantCalls: 1},
		{name: "server_error", status: http.StatusBadGateway, body: `oops`, wantErr: "unexpected status 502", wantCalls: 3},
		{name: "malformed", status: http.StatusOK, body: `{bad`, wantErr: "unmarshal response", wantCalls: 1},
		{name: "api_error", status: http.StatusOK, body: `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`, wantErr: "apiKeyInvalid", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(0), WithRetryPolicy(fastRetry()))
			_, err := c.ListHeadlines(context.Background(), "Rome", "IT", 10)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestListHeadlines_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryPolicy(fastRetry()))
	_, err := c.ListHeadlines(ctx, "Rome", "IT", 10)
	require.Error(t, err)
}
