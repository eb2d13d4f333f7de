package engine

import "time"

// Operating bounds and the speed law for the reference plant configuration.
const (
	tempMin        = 20.0
	tempMax        = 30.0
	tempJitter     = 0.1
	pressureMin    = 95.0
	pressureMax    = 105.0
	pressureJitter = 0.25
	speedBase      = 1750
	speedStep      = 50
	speedJitter    = 100
)

// Mode is the top-level operational state of the control state machine.
type Mode string

const (
	ModeNormal            Mode = "normal"
	ModeEmergencyShutdown Mode = "emergency_shutdown"
)

// Connection status strings shown by the operator console.
const (
	statusConnected    = "Connected to Legacy PLCs"
	statusShutdown     = "EMERGENCY SHUTDOWN ACTIVE"
	statusIncompatible = "System Incompatible"
)

// SensorState holds the live plant readings. It is owned by the Engine and
// mutated only under its mutex; MotorSpeeds and MotorStates are index-aligned.
type SensorState struct {
	Temperatures     []float64
	Pressures        []float64
	MotorSpeeds      []int
	MotorStates      []bool
	SafetyInterlocks bool
	LastUpdate       time.Time
}

func defaultSensorState() SensorState {
	return SensorState{
		Temperatures:     []float64{23.5, 24.1, 22.8, 25.0},
		Pressures:        []float64{101.3, 98.7, 102.1},
		MotorSpeeds:      []int{1750, 1800, 0, 2200},
		MotorStates:      []bool{true, true, false, true},
		SafetyInterlocks: true,
		LastUpdate:       time.Now(),
	}
}

func defaultMotorStates() []bool {
	return []bool{true, true, false, true}
}

// baseSpeed is the reference RPM for motor index i with no jitter applied.
func baseSpeed(i int) int {
	return speedBase + speedStep*i
}

// Snapshot is a fully-consistent copy of the engine state suitable for
// rendering. It shares no memory with the live state.
type Snapshot struct {
	Temperatures       []float64 `json:"temperatures"`
	Pressures          []float64 `json:"pressures"`
	MotorSpeeds        []int     `json:"motorSpeeds"`
	MotorStates        []bool    `json:"motorStates"`
	SafetyInterlocks   bool      `json:"safetyInterlocks"`
	LastUpdate         time.Time `json:"lastUpdate"`
	Mode               Mode      `json:"mode"`
	DiagnosticRunning  bool      `json:"diagnosticRunning"`
	DiagnosticLog      []string  `json:"diagnosticLog"`
	ConnectionStatus   string    `json:"connectionStatus"`
	Compatible         bool      `json:"compatible"`
	IncompatibleReason string    `json:"incompatibleReason,omitempty"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
