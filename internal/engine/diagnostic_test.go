package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDiagnosticProducesTranscript(t *testing.T) {
	e := newTestEngine(t)

	e.RunDiagnostic()

	snap := e.Snapshot()
	assert.True(t, snap.DiagnosticRunning)
	require.Len(t, snap.DiagnosticLog, 8)
	assert.Equal(t, "=== FORLENZA INDUSTRIAL DIAGNOSTIC ===", snap.DiagnosticLog[0])
	assert.Equal(t, "System ID: FIS-CTRL-7001", snap.DiagnosticLog[1])
	assert.Equal(t, "Diagnostic Complete - All Systems Operational", snap.DiagnosticLog[len(snap.DiagnosticLog)-1])
}

func TestDiagnosticTranscriptIsFixed(t *testing.T) {
	assert.Equal(t, diagnosticTranscript(), diagnosticTranscript(), "transcript must not vary between runs")
}

func TestRunDiagnosticDoesNotTouchSensors(t *testing.T) {
	e := newTestEngine(t)
	before := e.Snapshot()

	e.RunDiagnostic()

	snap := e.Snapshot()
	assert.Equal(t, before.Temperatures, snap.Temperatures)
	assert.Equal(t, before.Pressures, snap.Pressures)
	assert.Equal(t, before.MotorSpeeds, snap.MotorSpeeds)
	assert.Equal(t, before.MotorStates, snap.MotorStates)
	assert.Equal(t, before.LastUpdate, snap.LastUpdate)
}

func TestRunDiagnosticSuppressedWhileSettling(t *testing.T) {
	e := newTestEngine(t, WithSettleDelay(100*time.Millisecond))

	e.RunDiagnostic()
	first := e.Snapshot().DiagnosticLog
	require.NotEmpty(t, first)

	e.RunDiagnostic()
	snap := e.Snapshot()
	assert.Equal(t, first, snap.DiagnosticLog, "second trigger before settle must not produce a second or interleaved log")
	assert.True(t, snap.DiagnosticRunning)

	require.Eventually(t, func() bool {
		return !e.Snapshot().DiagnosticRunning
	}, time.Second, 10*time.Millisecond, "in-progress flag must clear after the settle delay")

	e.RunDiagnostic()
	assert.True(t, e.Snapshot().DiagnosticRunning, "a fresh run must be possible once settled")
}

func TestRunDiagnosticIgnoredDuringShutdown(t *testing.T) {
	e := newTestEngine(t)
	e.EmergencyShutdown()

	e.RunDiagnostic()

	snap := e.Snapshot()
	assert.False(t, snap.DiagnosticRunning)
	assert.Empty(t, snap.DiagnosticLog)
}

func TestDiagnosticSettleDoesNotBlockTicks(t *testing.T) {
	e := newTestEngine(t, WithSettleDelay(200*time.Millisecond))

	e.RunDiagnostic()
	require.True(t, e.Snapshot().DiagnosticRunning)

	ts := time.Now().Add(time.Second)
	e.tick(ts)

	assert.Equal(t, ts, e.Snapshot().LastUpdate, "tick must proceed while a run settles")
}
