// Package metrics exposes the controller's Prometheus instrumentation.
//
//   - rangebreak_ticks_total                    – control loop iterations
//   - rangebreak_phase                          – current phase (labeled 0/1 gauges)
//   - rangebreak_buy_attempts_total{outcome}    – buy attempts by outcome
//   - rangebreak_orders_total{side,status}      – order submissions
//   - rangebreak_rate_limited_total             – broker throttle hits
//   - rangebreak_positions_held                 – distinct symbols entered this session
//
// Registered on the default registry and served at /metrics by the monitor
// HTTP server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rangebreak_ticks_total",
		Help: "Control loop iterations",
	})

	Phase = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rangebreak_phase",
		Help: "Current trading phase; exactly one labeled series is 1",
	}, []string{"phase"})

	BuyAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rangebreak_buy_attempts_total",
		Help: "Buy attempts by outcome",
	}, []string{"outcome"})

	Orders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rangebreak_orders_total",
		Help: "Order submissions by side and venue status",
	}, []string{"side", "status"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rangebreak_rate_limited_total",
		Help: "Broker throttle responses",
	})

	PositionsHeld = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rangebreak_positions_held",
		Help: "Distinct symbols entered this session",
	})
)

func init() {
	prometheus.MustRegister(Ticks, Phase, BuyAttempts, Orders, RateLimited, PositionsHeld)
}

// SetPhase flips the phase gauge so only the given label reads 1.
func SetPhase(current string, all []string) {
	for _, p := range all {
		v := 0.0
		if p == current {
			v = 1
		}
		Phase.WithLabelValues(p).Set(v)
	}
}
