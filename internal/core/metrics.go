package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const METRICS_NAMESPACE = "tickscript"

// Metrics holds the prometheus collectors updated by program managers, a nil *Metrics is valid and records nothing.
type Metrics struct {
	ticksTotal         *prometheus.CounterVec   // ticks advanced per world
	statementsTotal    prometheus.Counter       // statements executed by all programs
	errorsTotal        *prometheus.CounterVec   // uncaught program errors per world and key
	programsLoaded     *prometheus.GaugeVec     // registered programs per world
	tickDurationSecond *prometheus.HistogramVec // duration of AdvanceAll per world
}

// NewMetrics creates the collectors and registers them in registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: METRICS_NAMESPACE,
				Name:      "ticks_total",
				Help:      "Number of ticks advanced.",
			},
			[]string{"world"},
		),
		statementsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: METRICS_NAMESPACE,
				Name:      "statements_total",
				Help:      "Number of statements executed.",
			},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: METRICS_NAMESPACE,
				Name:      "program_errors_total",
				Help:      "Number of uncaught errors that stopped a program.",
			},
			[]string{"world", "key"},
		),
		programsLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: METRICS_NAMESPACE,
				Name:      "programs_loaded",
				Help:      "Number of loaded programs.",
			},
			[]string{"world"},
		),
		tickDurationSecond: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: METRICS_NAMESPACE,
				Name:      "tick_duration_seconds",
				Help:      "Time spent advancing the programs of a world during one tick.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"world"},
		),
	}

	for _, c := range []prometheus.Collector{m.ticksTotal, m.statementsTotal, m.errorsTotal, m.programsLoaded, m.tickDurationSecond} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) tickAdvanced(world string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ticksTotal.WithLabelValues(world).Inc()
	m.tickDurationSecond.WithLabelValues(world).Observe(duration.Seconds())
}

func (m *Metrics) statementExecuted() {
	if m == nil {
		return
	}
	m.statementsTotal.Inc()
}

func (m *Metrics) programErrored(world string, key string) {
	if m == nil {
		return
	}
	m.errorsTotal.With(prometheus.Labels{"world": world, "key": key}).Inc()
}

func (m *Metrics) setLoadedPrograms(world string, count int) {
	if m == nil {
		return
	}
	m.programsLoaded.WithLabelValues(world).Set(float64(count))
}
