package engine

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	intervalEnvKey = "FIS_TICK_INTERVAL"
	settleEnvKey   = "FIS_DIAG_SETTLE"

	defaultInterval    = 1 * time.Second
	defaultSettleDelay = 3 * time.Second
)

// IntervalFromEnv reads the simulator tick interval from the environment and
// falls back to the default cadence.
func IntervalFromEnv() time.Duration {
	return durationFromString(intervalEnvKey, os.Getenv(intervalEnvKey), defaultInterval)
}

// SettleDelayFromEnv reads the diagnostic settle delay from the environment
// and falls back to the default.
func SettleDelayFromEnv() time.Duration {
	return durationFromString(settleEnvKey, os.Getenv(settleEnvKey), defaultSettleDelay)
}

func durationFromString(key, raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Err(err).Dur("fallback", fallback).Msg("invalid duration, using default")
		return fallback
	}
	if dur <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("fallback", fallback).Msg("non-positive duration, using default")
		return fallback
	}
	return dur
}
