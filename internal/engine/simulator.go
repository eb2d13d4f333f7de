package engine

import (
	"context"
	"time"

	"github.com/forlenza/fis-control/internal/metrics"
)

// Start begins periodic sensor simulation until ctx cancels. It is a no-op
// for an incompatible engine.
func (e *Engine) Start(ctx context.Context) {
	if !e.compatible {
		e.logger.Warn().Str("reason", e.reason).Msg("platform incompatible; sensor simulation disabled")
		return
	}
	e.logger.Info().Dur("interval", e.interval).Msg("sensor simulator running")
	ticker := time.NewTicker(e.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info().Msg("sensor simulator stopped")
				return
			case ts := <-ticker.C:
				e.tick(ts)
			}
		}
	}()
}

// tick applies one simulation step as a single atomic update. Contention with
// a command handler skips the step; the ticker retries on the next cadence.
func (e *Engine) tick(ts time.Time) {
	if !e.mu.TryLock() {
		metrics.TicksSkipped.Inc()
		return
	}
	for i := range e.state.Temperatures {
		delta := (e.rng.Float64() - 0.5) * 2 * tempJitter
		e.state.Temperatures[i] = clamp(e.state.Temperatures[i]+delta, tempMin, tempMax)
	}
	for i := range e.state.Pressures {
		delta := (e.rng.Float64() - 0.5) * 2 * pressureJitter
		e.state.Pressures[i] = clamp(e.state.Pressures[i]+delta, pressureMin, pressureMax)
	}
	// Stopped motors are never written here; only shutdown and reset
	// transitions touch their speed.
	for i, running := range e.state.MotorStates {
		if running {
			e.state.MotorSpeeds[i] = baseSpeed(i) + e.rng.Intn(speedJitter)
		}
	}
	e.state.LastUpdate = ts
	snap := e.snapshotLocked()
	listeners := append([]TickListener(nil), e.listeners...)
	e.mu.Unlock()

	metrics.TicksTotal.Inc()
	for _, l := range listeners {
		l.OnTick(ts, snap)
	}
}
