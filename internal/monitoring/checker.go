package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/config"
	"github.com/sells-group/newsdesk/internal/model"
)

// ReportSource produces transparency reports on demand.
type ReportSource interface {
	TransparencyReport() *model.TransparencyReport
}

// Checker runs periodic health checks in the background.
type Checker struct {
	source  ReportSource
	alerter *Alerter
	cfg     config.MonitoringConfig
}

// NewChecker creates a background health checker.
func NewChecker(source ReportSource, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		source:  source,
		alerter: alerter,
		cfg:     cfg,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting health checker", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("health checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	report := c.source.TransparencyReport()
	alerts := c.alerter.Evaluate(report)
	if len(alerts) == 0 {
		log.Debug("monitoring: pipeline healthy",
			zap.Float64("success_rate", report.SuccessRate),
		)
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: health check complete",
		zap.String("system_health", string(report.SystemHealth)),
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
}
