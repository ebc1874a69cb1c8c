package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors the command path reports into.
// Collectors are created once at startup; handlers only observe.
type Metrics struct {
	CommandsTotal    *prometheus.CounterVec
	CommandDurations *prometheus.HistogramVec
	EventFailures    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commands_total",
				Help: "Total number of processed commands.",
			},
			[]string{"command", "outcome"},
		),
		CommandDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "command_duration_seconds",
				Help:    "Duration of command processing in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		EventFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_event_publish_failed_total",
				Help: "Count of order-related event publish failures.",
			},
			[]string{"event"},
		),
	}
	reg.MustRegister(m.CommandsTotal, m.CommandDurations, m.EventFailures)
	return m
}

// ObserveCommand records one completed command with its outcome label.
func (m *Metrics) ObserveCommand(command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDurations.WithLabelValues(command).Observe(elapsed.Seconds())
}
