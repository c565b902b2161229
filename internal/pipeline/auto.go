package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
)

// StartAutomatic starts the ingestion loop and a periodic full run for
// place. A tick that finds the previous run still in flight is dropped and
// counted in SkippedRuns. It returns false if automatic processing is
// already on.
func (p *Pipeline) StartAutomatic(ctx context.Context, place model.Place, interval time.Duration) bool {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.autoMu.Lock()
	defer p.autoMu.Unlock()
	if p.auto.Running() {
		return false
	}

	p.fetcher.StartLoop(ctx, place, interval)
	p.auto.Start(ctx, interval, func(ctx context.Context) {
		p.tick(ctx, place)
	})
	zap.L().Info("pipeline: automatic processing started",
		zap.Stringer("place", place),
		zap.Duration("interval", interval),
	)
	return true
}

// StopAutomatic stops both periodic tasks and waits for an in-flight run to
// return. It is safe to call at any time.
func (p *Pipeline) StopAutomatic() {
	p.autoMu.Lock()
	defer p.autoMu.Unlock()

	wasRunning := p.auto.Running()
	p.auto.Stop()
	p.fetcher.StopLoop()
	p.inflight.Wait()
	if wasRunning {
		zap.L().Info("pipeline: automatic processing stopped")
	}
}

// AutomaticRunning reports whether automatic processing is on.
func (p *Pipeline) AutomaticRunning() bool {
	return p.auto.Running()
}

// tick launches a run unless one is already in flight.
func (p *Pipeline) tick(ctx context.Context, place model.Place) {
	if !p.running.CompareAndSwap(false, true) {
		n := p.skipped.Add(1)
		zap.L().Warn("pipeline: previous run still in progress, skipping",
			zap.Stringer("place", place),
			zap.Int64("skipped_runs", n),
		)
		return
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer p.running.Store(false)

		res := p.Run(ctx, place)
		if !res.Success {
			zap.L().Warn("pipeline: scheduled run failed",
				zap.Stringer("place", place),
				zap.String("error", res.Error),
			)
		}
	}()
}
