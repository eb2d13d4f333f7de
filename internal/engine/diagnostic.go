package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/forlenza/fis-control/internal/metrics"
)

// RunDiagnostic starts the synthetic self-test. Valid only in normal mode
// with no run still settling; otherwise the command is silently ignored. The
// transcript replaces the previous log immediately, and the in-progress flag
// clears after the settle delay through a deferred timer that never holds the
// engine lock while waiting.
func (e *Engine) RunDiagnostic() {
	if !e.compatible {
		return
	}
	e.mu.Lock()
	if e.mode != ModeNormal || e.diagRunning {
		e.mu.Unlock()
		metrics.CommandsTotal.WithLabelValues("diagnostic", "ignored").Inc()
		return
	}
	runID := uuid.New().String()
	e.diagRunning = true
	e.diagLog = diagnosticTranscript()
	settle := e.settle
	e.mu.Unlock()

	metrics.CommandsTotal.WithLabelValues("diagnostic", "applied").Inc()
	e.logger.Info().Str("run_id", runID).Dur("settle", settle).Msg("diagnostic run started")

	time.AfterFunc(settle, func() {
		e.mu.Lock()
		e.diagRunning = false
		e.mu.Unlock()
		e.logger.Info().Str("run_id", runID).Msg("diagnostic run settled")
	})
}

// diagnosticTranscript returns the fixed, ordered self-test report shown in
// the console's diagnostic panel. It reads nothing from the sensor state.
func diagnosticTranscript() []string {
	return []string{
		"=== FORLENZA INDUSTRIAL DIAGNOSTIC ===",
		"System ID: FIS-CTRL-7001",
		"Initializing legacy hardware interfaces...",
		"Checking platform compatibility... OK",
		"Loading legacy PLC drivers... OK",
		"Connecting to industrial network... OK",
		"Verifying safety interlocks... OK",
		"Diagnostic Complete - All Systems Operational",
	}
}
