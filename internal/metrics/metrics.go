// Package metrics wires the core's prometheus counters and gauges,
// grounded on tracker.go's promauto.NewCounterVec usage in the teacher
// repo.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsRead counts raw events pulled off a source device, labeled
	// by source path.
	EventsRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputcore_events_read_total",
		Help: "Total number of raw evdev events read from a source device.",
	}, []string{"source"})

	// EventsForwarded counts events that fell through to the forward
	// sink unmodified.
	EventsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputcore_events_forwarded_total",
		Help: "Total number of events forwarded unmodified because no handler consumed them.",
	}, []string{"source"})

	// HandlerTriggers counts successful handler activations, labeled by
	// the target sink they injected into.
	HandlerTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputcore_handler_triggers_total",
		Help: "Total number of times a mapping handler consumed and emitted an event.",
	}, []string{"target", "kind"})

	// MacrosRunning is the number of macros currently executing.
	MacrosRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inputcore_macros_running",
		Help: "Number of macros currently running.",
	})

	// RateLoopTicks counts axis rate-loop emissions, labeled by sink.
	RateLoopTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inputcore_rate_loop_ticks_total",
		Help: "Total number of events emitted by axis rate loops.",
	}, []string{"target"})

	// VariableStoreLatency observes get/set round-trip time through the
	// variable store actor.
	VariableStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inputcore_variable_store_latency_seconds",
		Help:    "Round-trip latency of variable store operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// VariableStoreTimeouts counts get() calls that hit the bounded
	// timeout (spec §4.8).
	VariableStoreTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inputcore_variable_store_timeouts_total",
		Help: "Total number of variable store operations that timed out.",
	})

	// PanicProgress reports how many codeword characters have matched
	// in sequence.
	PanicProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inputcore_panic_watchdog_progress",
		Help: "Current position in the panic codeword match.",
	})

	// InjectionsActive is the number of logical devices currently
	// injected into.
	InjectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inputcore_injections_active",
		Help: "Number of logical devices currently under injection.",
	})
)
