package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/config"
	"github.com/sells-group/newsdesk/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertSystemHealth AlertType = "system_health"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter turns unhealthy reports into webhook alerts.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate returns an alert when the report is not healthy.
func (a *Alerter) Evaluate(report *model.TransparencyReport) []Alert {
	if report == nil || report.SystemHealth == model.HealthHealthy {
		return nil
	}

	severity := "medium"
	if report.SystemHealth == model.HealthError {
		severity = "high"
	}

	names := make([]string, 0, len(report.AgentMetrics))
	for name := range report.AgentMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	failedByStage := make(map[string]int64, len(names))
	for _, name := range names {
		failedByStage[name] = report.AgentMetrics[name].TasksFailed
	}

	return []Alert{{
		Type:     AlertSystemHealth,
		Severity: severity,
		Message: fmt.Sprintf(
			"Pipeline health is %s: success rate %.1f%% (%d failed / %d tasks)",
			report.SystemHealth, report.SuccessRate*100, report.TotalFailures, report.TotalTasks,
		),
		Details: map[string]any{
			"system_health":   report.SystemHealth,
			"success_rate":    report.SuccessRate,
			"failed_by_stage": failedByStage,
			"skipped_runs":    report.SkippedRuns,
		},
		Timestamp: report.GeneratedAt,
	}}
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
