// Package metrics holds the Prometheus instrumentation for the control
// monitor core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal counts completed sensor simulation ticks.
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fis_simulator_ticks_total",
		Help: "Total number of completed sensor simulation ticks",
	})

	// TicksSkipped counts ticks dropped because a command held the state lock.
	TicksSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fis_simulator_ticks_skipped_total",
		Help: "Simulation ticks skipped due to lock contention",
	})

	// CommandsTotal counts operator commands by command name and outcome
	// (applied or ignored).
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fis_commands_total",
		Help: "Operator commands processed, by command and outcome",
	}, []string{"command", "outcome"})
)

func init() {
	prometheus.MustRegister(TicksTotal, TicksSkipped, CommandsTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
