// Package monitoring derives pipeline health from stage metrics and alerts
// when it degrades.
package monitoring

import (
	"time"

	"github.com/sells-group/newsdesk/internal/model"
)

// Health thresholds on the aggregate success rate, inclusive.
const (
	HealthyRate  = 0.9
	DegradedRate = 0.7
)

// MetricsSource is a stage that reports its own counters.
type MetricsSource interface {
	Metrics() model.AgentMetrics
}

// Collector builds transparency reports from a fixed set of stages.
type Collector struct {
	stages []MetricsSource
	now    func() time.Time
}

// NewCollector creates a Collector over stages.
func NewCollector(stages ...MetricsSource) *Collector {
	return &Collector{stages: stages, now: time.Now}
}

// Collect returns a fresh report. Nothing is cached between calls.
func (c *Collector) Collect(activity []model.ActivityEntry, skippedRuns int64) *model.TransparencyReport {
	report := &model.TransparencyReport{
		AgentMetrics:   make(map[string]model.AgentMetrics, len(c.stages)),
		RecentActivity: activity,
		SkippedRuns:    skippedRuns,
		GeneratedAt:    c.now().UTC(),
	}
	if report.RecentActivity == nil {
		report.RecentActivity = []model.ActivityEntry{}
	}

	for _, s := range c.stages {
		m := s.Metrics()
		report.AgentMetrics[m.Name] = m
		report.TotalTasks += m.TasksCompleted
		report.TotalFailures += m.TasksFailed
	}
	report.SuccessRate = SuccessRate(report.TotalTasks, report.TotalFailures)
	report.SystemHealth = ClassifyHealth(report.SuccessRate)
	return report
}

// SuccessRate is (total-failed)/total, or 1 when nothing has run. total
// counts completed tasks only, so failures beyond it clamp the rate to 0.
func SuccessRate(total, failed int64) float64 {
	if total <= 0 {
		return 1
	}
	if failed >= total {
		return 0
	}
	return float64(total-failed) / float64(total)
}

// ClassifyHealth maps a success rate to a health status.
func ClassifyHealth(rate float64) model.HealthStatus {
	switch {
	case rate >= HealthyRate:
		return model.HealthHealthy
	case rate >= DegradedRate:
		return model.HealthDegraded
	default:
		return model.HealthError
	}
}
