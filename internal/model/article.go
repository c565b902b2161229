package model

import (
	"time"
)

// FactCheckStatus is the credibility label derived from a score.
type FactCheckStatus string

const (
	StatusVerified   FactCheckStatus = "verified"
	StatusUnverified FactCheckStatus = "unverified"
	StatusPending    FactCheckStatus = "pending"
	StatusDisputed   FactCheckStatus = "disputed"
)

// Score thresholds, inclusive on the lower side.
const (
	VerifiedThreshold   = 80
	UnverifiedThreshold = 60
	PendingThreshold    = 40
)

// StatusForScore maps a credibility score to its status label. Every
// integer maps to exactly one status.
func StatusForScore(score int) FactCheckStatus {
	switch {
	case score >= VerifiedThreshold:
		return StatusVerified
	case score >= UnverifiedThreshold:
		return StatusUnverified
	case score >= PendingThreshold:
		return StatusPending
	default:
		return StatusDisputed
	}
}

// Place identifies the location a batch of news is fetched for.
type Place struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Valid reports whether both city and country are set.
func (p Place) Valid() bool {
	return p.City != "" && p.Country != ""
}

func (p Place) String() string {
	return p.City + ", " + p.Country
}

// Geotag holds WGS84 coordinates.
type Geotag struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ProcessingMarker records which enrichment stages have run.
type ProcessingMarker struct {
	Summarized  bool      `json:"summarized"`
	FactChecked bool      `json:"fact_checked"`
	ProcessedAt time.Time `json:"processed_at,omitempty"`
}

// Article is the canonical unit flowing through the pipeline.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Location    Place     `json:"location"`
	Geotag      *Geotag   `json:"geotag,omitempty"`
	Tags        []string  `json:"tags"`

	CredibilityScore int              `json:"credibility_score"`
	Status           FactCheckStatus  `json:"fact_check_status,omitempty"`
	FactCheckReport  string           `json:"fact_check_report,omitempty"`
	Processing       ProcessingMarker `json:"agent_processed"`
}

// Clone returns a deep copy so stages can enrich without touching their input.
func (a Article) Clone() Article {
	out := a
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	if a.Geotag != nil {
		g := *a.Geotag
		out.Geotag = &g
	}
	return out
}

// SortKey is the composite ranking key used when listing articles:
// publish time in epoch milliseconds plus 1000 per credibility point.
func (a Article) SortKey() int64 {
	return a.PublishedAt.UnixMilli() + int64(a.CredibilityScore)*1000
}

// Headline is a raw item returned by a source article provider.
type Headline struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source"`
}

// UpsertKey identifies a stored article. It does not include location.
type UpsertKey struct {
	Title       string
	PublishedAt time.Time
}

// KeyFor builds the upsert key for an article.
func KeyFor(a Article) UpsertKey {
	return UpsertKey{Title: a.Title, PublishedAt: a.PublishedAt.UTC()}
}

// StoredArticle is an article as returned by the store after upsert.
type StoredArticle struct {
	Article
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleFilter narrows an article listing.
type ArticleFilter struct {
	Location       string `json:"location,omitempty"`
	MinCredibility int    `json:"credibility_threshold,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// DefaultArticleLimit applies when ArticleFilter.Limit is unset.
const DefaultArticleLimit = 50
