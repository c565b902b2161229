package model

import "time"

// AgentMetrics holds per-stage counters. Counters never decrease within a
// process lifetime.
type AgentMetrics struct {
	Name            string    `json:"name"`
	TasksCompleted  int64     `json:"tasks_completed"`
	TasksFailed     int64     `json:"tasks_failed"`
	TasksInProgress int64     `json:"tasks_in_progress"`
	LastActive      time.Time `json:"last_active"`
}

// HealthStatus classifies aggregate pipeline health.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthError    HealthStatus = "error"
)

// ActivityType names the pipeline step an activity entry records.
type ActivityType string

const (
	ActivityFetch     ActivityType = "fetch-news"
	ActivitySummarize ActivityType = "summarize"
	ActivityFactCheck ActivityType = "fact-check"
	ActivityPersist   ActivityType = "persist"
)

// ActivityStatus is the outcome of an activity entry.
type ActivityStatus string

const (
	ActivityCompleted ActivityStatus = "completed"
	ActivityFailed    ActivityStatus = "failed"
)

// ActivityEntry is one step of a pipeline run in the recent-activity log.
type ActivityEntry struct {
	ID           string         `json:"id"`
	Type         ActivityType   `json:"type"`
	Status       ActivityStatus `json:"status"`
	Place        Place          `json:"place"`
	ArticleCount int            `json:"article_count"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	Error        string         `json:"error,omitempty"`
}

// TransparencyReport is a read-only snapshot of pipeline health.
type TransparencyReport struct {
	AgentMetrics   map[string]AgentMetrics `json:"agent_metrics"`
	RecentActivity []ActivityEntry         `json:"recent_activity"`
	SystemHealth   HealthStatus            `json:"system_health"`
	SuccessRate    float64                 `json:"success_rate"`
	TotalTasks     int64                   `json:"total_tasks"`
	TotalFailures  int64                   `json:"total_failures"`
	SkippedRuns    int64                   `json:"skipped_runs"`
	GeneratedAt    time.Time               `json:"generated_at"`
}

// PipelineResult is the outcome of one orchestrator run.
type PipelineResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// DatabaseStats summarizes the accumulated article set.
type DatabaseStats struct {
	TotalArticles    int       `json:"total_articles"`
	VerifiedArticles int       `json:"verified_articles"`
	AvgCredibility   int       `json:"avg_credibility"`
	LastUpdated      time.Time `json:"last_updated"`
}
