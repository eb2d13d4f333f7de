// Package platform supplies the capability verdict consumed once at engine
// construction. The legacy HMI stack this monitor descends from only ran on a
// narrow set of control-room hosts; that check is modelled here as a single
// environment-driven flag so the core never inspects the OS itself.
package platform

import (
	"os"
	"strconv"
)

const compatEnvKey = "FIS_PLATFORM_COMPAT"

const incompatibleReason = "CRITICAL COMPATIBILITY ERROR: Forlenza Industrial Control System requires a certified legacy HMI host. " +
	"This software depends on legacy PLC driver interfaces and industrial HMI rendering not present on this platform. " +
	"Run on a certified control-room host or contact Forlenza Industrial Systems for upgrade options."

// Capability is the verdict handed to the engine at construction.
type Capability struct {
	Compatible bool
	Reason     string
}

// Detect reads FIS_PLATFORM_COMPAT and falls back to compatible when the
// variable is unset or unparsable. A falsy value yields the canonical
// incompatibility reason shown by the operator console.
func Detect() Capability {
	raw := os.Getenv(compatEnvKey)
	if raw == "" {
		return Compatible()
	}
	ok, err := strconv.ParseBool(raw)
	if err != nil || ok {
		return Compatible()
	}
	return Incompatible(incompatibleReason)
}

// Compatible returns an affirmative verdict.
func Compatible() Capability {
	return Capability{Compatible: true}
}

// Incompatible returns a terminal verdict with a human-readable reason.
func Incompatible(reason string) Capability {
	if reason == "" {
		reason = incompatibleReason
	}
	return Capability{Compatible: false, Reason: reason}
}
