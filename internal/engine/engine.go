// Package engine implements the operational core of the Forlenza control
// monitor: the shared sensor state, the background simulator that perturbs it
// and the state machine driven by operator commands. The presentation layer
// reads the engine exclusively through value-copied snapshots.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/forlenza/fis-control/internal/metrics"
	"github.com/forlenza/fis-control/internal/platform"
)

// TickListener observes each completed simulator tick with the snapshot taken
// at the end of that tick. Callbacks run outside the engine lock.
type TickListener interface {
	OnTick(ts time.Time, snap Snapshot)
}

// Engine owns the sensor state and the operational mode. All mutation happens
// under a single mutex; readers only ever see full snapshots.
type Engine struct {
	mu          sync.Mutex
	state       SensorState
	mode        Mode
	diagRunning bool
	diagLog     []string
	status      string
	listeners   []TickListener

	compatible bool
	reason     string

	rng      *rand.Rand
	interval time.Duration
	settle   time.Duration
	logger   zerolog.Logger
}

// Option customizes Engine creation.
type Option func(*Engine)

// WithInterval overrides the default simulator tick interval.
func WithInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithSettleDelay overrides how long a diagnostic run stays marked as in
// progress after its transcript is produced.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.settle = d
		}
	}
}

// WithRand injects the pseudo-random source used by the simulator, so tests
// can fix the seed.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// New creates an Engine gated by the platform capability verdict. An
// incompatible engine is permanently inert: the simulator never starts and
// every command is a no-op.
func New(gate platform.Capability, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		state:      defaultSensorState(),
		mode:       ModeNormal,
		status:     statusConnected,
		compatible: gate.Compatible,
		reason:     gate.Reason,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		interval:   defaultInterval,
		settle:     defaultSettleDelay,
		logger:     logger.With().Str("component", "engine").Logger(),
	}
	if !gate.Compatible {
		e.status = statusIncompatible
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmergencyShutdown stops every motor, forces the safety interlocks on and
// latches emergency mode. Valid in any mode, idempotent, and atomic with
// respect to simulator ticks.
func (e *Engine) EmergencyShutdown() {
	if !e.compatible {
		return
	}
	e.mu.Lock()
	if e.mode == ModeEmergencyShutdown {
		// Motors are already stopped and latched; reapplying would only
		// rewrite zeros.
		e.mu.Unlock()
		metrics.CommandsTotal.WithLabelValues("shutdown", "ignored").Inc()
		return
	}
	for i := range e.state.MotorSpeeds {
		e.state.MotorSpeeds[i] = 0
		e.state.MotorStates[i] = false
	}
	e.state.SafetyInterlocks = true
	e.state.LastUpdate = time.Now()
	e.mode = ModeEmergencyShutdown
	e.status = statusShutdown
	e.mu.Unlock()

	metrics.CommandsTotal.WithLabelValues("shutdown", "applied").Inc()
	e.logger.Warn().Msg("emergency shutdown engaged; all motors stopped")
}

// Reset restores the default run configuration after an emergency shutdown:
// motors 1, 2 and 4 running at their base speed, motor 3 stopped. Issued
// while already in normal mode it leaves the state untouched.
func (e *Engine) Reset() {
	if !e.compatible {
		return
	}
	e.mu.Lock()
	if e.mode != ModeEmergencyShutdown {
		e.mu.Unlock()
		metrics.CommandsTotal.WithLabelValues("reset", "ignored").Inc()
		return
	}
	e.state.MotorStates = defaultMotorStates()
	for i, running := range e.state.MotorStates {
		if running {
			e.state.MotorSpeeds[i] = baseSpeed(i)
		} else {
			e.state.MotorSpeeds[i] = 0
		}
	}
	e.state.LastUpdate = time.Now()
	e.mode = ModeNormal
	e.status = statusConnected
	e.mu.Unlock()

	metrics.CommandsTotal.WithLabelValues("reset", "applied").Inc()
	e.logger.Info().Msg("system reset; normal operation resumed")
}

// Snapshot returns a fully-consistent copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Temperatures:       append([]float64(nil), e.state.Temperatures...),
		Pressures:          append([]float64(nil), e.state.Pressures...),
		MotorSpeeds:        append([]int(nil), e.state.MotorSpeeds...),
		MotorStates:        append([]bool(nil), e.state.MotorStates...),
		SafetyInterlocks:   e.state.SafetyInterlocks,
		LastUpdate:         e.state.LastUpdate,
		Mode:               e.mode,
		DiagnosticRunning:  e.diagRunning,
		DiagnosticLog:      append([]string(nil), e.diagLog...),
		ConnectionStatus:   e.status,
		Compatible:         e.compatible,
		IncompatibleReason: e.reason,
	}
}

// Mode returns the current operational mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Compatible reports whether the platform gate allowed this engine to run.
func (e *Engine) Compatible() bool {
	return e.compatible
}

// IncompatibleReason returns the gate's reason string, empty when compatible.
func (e *Engine) IncompatibleReason() string {
	return e.reason
}

// Interval returns the configured simulator tick interval.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// RegisterTickListener subscribes to completed simulator ticks.
func (e *Engine) RegisterTickListener(l TickListener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}
