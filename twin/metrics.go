package twin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 求解指标
type Metrics struct {
	SolveDuration prometheus.Histogram
	Solves        *prometheus.CounterVec
	Flow          *prometheus.GaugeVec
	Pressure      prometheus.Gauge
	PumpPressure  prometheus.Gauge
	Limited       prometheus.Counter
	Uncertainty   *prometheus.GaugeVec
}

// NewMetrics 在 reg 上注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ciet",
			Name:      "solve_duration_seconds",
			Help:      "Duration of one network solve.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		Solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ciet",
			Name:      "solves_total",
			Help:      "Network solves by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		Flow: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ciet",
			Name:      "branch_mass_flow_kg_per_s",
			Help:      "Branch mass flow from the last successful solve.",
		}, []string{"branch"}),
		Pressure: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ciet",
			Name:      "loop_pressure_pa",
			Help:      "Shared branch pressure change from the last successful solve.",
		}),
		PumpPressure: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ciet",
			Name:      "pump_pressure_pa",
			Help:      "Pump pressure used by the last solve.",
		}),
		Limited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ciet",
			Name:      "solve_rate_limited_total",
			Help:      "On-demand solve requests rejected by the rate limiter.",
		}),
		Uncertainty: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ciet",
			Name:      "loop_pressure_error_pa",
			Help:      "Estimated loop pressure drop error by source.",
		}, []string{"source"}),
	}
}
