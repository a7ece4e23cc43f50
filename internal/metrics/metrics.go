// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vega-lab/vega-trading/internal/types"
)

// Metrics holds every collector the engine updates. A single instance is
// shared across components and registered once.
type Metrics struct {
	TicksIngested   *prometheus.CounterVec
	TicksRejected   *prometheus.CounterVec
	SignalsEmitted  *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
	DecisionLatency prometheus.Histogram
	OpenPositions   prometheus.Gauge
	RealizedPnL     prometheus.Gauge
	Halted          prometheus.Gauge
	RegimeSeverity  prometheus.Gauge
}

// New creates the collector set.
func New() *Metrics {
	return &Metrics{
		TicksIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vega",
			Subsystem: "market",
			Name:      "ticks_ingested_total",
			Help:      "Ticks accepted into the market state store.",
		}, []string{"symbol"}),
		TicksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vega",
			Subsystem: "market",
			Name:      "ticks_rejected_total",
			Help:      "Ticks rejected by the store, by cause.",
		}, []string{"cause"}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vega",
			Subsystem: "signal",
			Name:      "signals_emitted_total",
			Help:      "Signals emitted by strategies.",
		}, []string{"strategy"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vega",
			Subsystem: "risk",
			Name:      "decisions_total",
			Help:      "Risk gate verdicts by action and reject reason.",
		}, []string{"action", "reason"}),
		DecisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vega",
			Subsystem: "risk",
			Name:      "decision_latency_seconds",
			Help:      "Per-signal gating latency.",
			Buckets:   prometheus.ExponentialBuckets(0.000050, 2, 12),
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vega",
			Subsystem: "position",
			Name:      "open_positions",
			Help:      "Non-terminal position count.",
		}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vega",
			Subsystem: "position",
			Name:      "realized_pnl",
			Help:      "Session realized profit and loss.",
		}),
		Halted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vega",
			Subsystem: "risk",
			Name:      "halted",
			Help:      "1 while the risk gate is halted.",
		}),
		RegimeSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vega",
			Subsystem: "market",
			Name:      "regime_severity",
			Help:      "Correlation regime severity, 0 normal through 3 emergency.",
		}),
	}
}

// Register adds all collectors to the registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.TicksIngested,
		m.TicksRejected,
		m.SignalsEmitted,
		m.Decisions,
		m.DecisionLatency,
		m.OpenPositions,
		m.RealizedPnL,
		m.Halted,
		m.RegimeSeverity,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// ObserveDecision updates the decision counters and latency histogram.
func (m *Metrics) ObserveDecision(d types.RiskDecision) {
	m.Decisions.WithLabelValues(string(d.Action), string(d.Reason)).Inc()
	m.DecisionLatency.Observe(d.Elapsed.Seconds())
}

// SetHalted maps the halt flag onto the gauge.
func (m *Metrics) SetHalted(halted bool) {
	if halted {
		m.Halted.Set(1)
	} else {
		m.Halted.Set(0)
	}
}
