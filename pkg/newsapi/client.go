// Package newsapi lists location headlines from the NewsAPI "everything"
// endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/resilience"
)

const (
	defaultBaseURL  = "https://newsapi.org"
	defaultPageSize = 10
)

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = eris.New("newsapi: no api key configured")

type everythingResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
	Code         string       `json:"code,omitempty"`
	Message      string       `json:"message,omitempty"`
}

type apiArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// WithRetryPolicy overrides the retry policy for transient failures.
func WithRetryPolicy(p resilience.RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// Client calls the NewsAPI REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryPolicy
}

// NewClient creates a NewsAPI client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   resilience.DefaultRetryPolicy("newsapi", "everything"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListHeadlines returns the most recent English articles mentioning city.
// Country is not part of the query; NewsAPI's everything endpoint has no
// country parameter.
func (c *Client) ListHeadlines(ctx context.Context, city, country string, pageSize int) ([]model.Headline, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if city == "" {
		return nil, eris.New("newsapi: city is required")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	q := url.Values{}
	q.Set("q", city+` OR "`+city+`"`)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	q.Set("pageSize", strconv.Itoa(pageSize))
	endpoint := c.baseURL + "/v2/everything?" + q.Encode()

	resp, err := resilience.Retry(ctx, c.retry, func(ctx context.Context) (*everythingResponse, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Headline, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		desc := a.Description
		if desc == "" {
			desc = a.Content
		}
		out = append(out, model.Headline{
			ID:          uuid.NewString(),
			Title:       a.Title,
			Description: desc,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*everythingResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "newsapi: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("newsapi: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result everythingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "newsapi: unmarshal response")
	}
	if result.Status != "" && result.Status != "ok" {
		return nil, eris.Errorf("newsapi: api error %s: %s", result.Code, result.Message)
	}
	return &result, nil
}
