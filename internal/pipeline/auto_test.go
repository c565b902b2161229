package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsdesk/internal/model"
)

func TestStopAutomatic_BeforeStart(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, _, _ := newTestPipeline(fetcher, nil)

	assert.NotPanics(t, func() {
		p.StopAutomatic()
		p.StopAutomatic()
	})
	assert.False(t, p.AutomaticRunning())
	assert.Zero(t, fetcher.callCount())
}

func TestTick_SkipsWhileRunInFlight(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &fakeFetcher{articles: testArticles(), gate: gate}
	p, _, _ := newTestPipeline(fetcher, nil)
	ctx := context.Background()

	p.tick(ctx, miami)
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)

	p.tick(ctx, miami)
	p.tick(ctx, miami)
	assert.Equal(t, int64(2), p.TransparencyReport().SkippedRuns)
	assert.Equal(t, 1, fetcher.callCount())

	close(gate)
	p.inflight.Wait()
	assert.False(t, p.running.Load())

	// The guard clears once the run finishes.
	p.tick(ctx, miami)
	p.inflight.Wait()
	assert.Equal(t, 2, fetcher.callCount())
	assert.Equal(t, int64(2), p.TransparencyReport().SkippedRuns)
}

func TestStartAutomatic_RunsUntilStopped(t *testing.T) {
	fetcher := &fakeFetcher{articles: testArticles()}
	p, _, fc := newTestPipeline(fetcher, nil)

	require.True(t, p.StartAutomatic(context.Background(), miami, 10*time.Millisecond))
	assert.True(t, p.AutomaticRunning())
	assert.False(t, p.StartAutomatic(context.Background(), miami, 10*time.Millisecond))

	require.Eventually(t, func() bool { return fc.callCount() >= 1 }, 2*time.Second, 5*time.Millisecond)

	p.StopAutomatic()
	assert.False(t, p.AutomaticRunning())
	assert.False(t, p.running.Load())

	fetcher.mu.Lock()
	assert.Equal(t, 1, fetcher.loopStarts)
	assert.Equal(t, 1, fetcher.loopStops)
	fetcher.mu.Unlock()

	calls := fetcher.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, fetcher.callCount())

	// Idempotent.
	p.StopAutomatic()
}

func TestStopAutomatic_CancelsInFlightRun(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	fetcher := &fakeFetcher{articles: testArticles(), gate: gate}
	p, sum, _ := newTestPipeline(fetcher, nil)

	require.True(t, p.StartAutomatic(context.Background(), miami, 10*time.Millisecond))
	require.Eventually(t, func() bool { return fetcher.callCount() >= 1 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.StopAutomatic()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StopAutomatic did not return")
	}
	// The fetch observed cancellation and returned nothing.
	assert.Zero(t, sum.callCount())
	activity := p.TransparencyReport().RecentActivity
	require.NotEmpty(t, activity)
	assert.Equal(t, model.ActivityFetch, activity[0].Type)
}
