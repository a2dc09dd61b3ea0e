package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/homevolt/dayahead/core/metrics"
)

// PromSink records plan outcomes in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	ceiling  prometheus.Gauge
	cost     prometheus.Gauge
	moves    *prometheus.GaugeVec
	duration prometheus.Histogram
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_runs_total",
		Help: "Total number of completed plan runs",
	}, []string{"peak_exceeded"})
	ceiling := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plan_import_ceiling_wh",
		Help: "Chosen flat grid import ceiling per quarter in Wh",
	})
	cost := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plan_total_cost_ore",
		Help: "Projected grid cost of the latest plan in oere",
	})
	moves := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plan_optimizer_moves",
		Help: "Accepted local-search moves in the latest plan by pass",
	}, []string{"pass"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_solve_duration_seconds",
		Help:    "Time spent in the dispatch solver",
		Buckets: prometheus.DefBuckets,
	})

	collectors := []prometheus.Collector{runs, ceiling, cost, moves, duration}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{runs: runs, ceiling: ceiling, cost: cost, moves: moves, duration: duration}, nil
}

// RecordPlanSummary updates the plan gauges and counters.
func (s *PromSink) RecordPlanSummary(sum coremetrics.PlanSummary) error {
	s.runs.WithLabelValues(strconv.FormatBool(sum.PeakExceeded)).Inc()
	s.ceiling.Set(sum.CeilingWh)
	s.cost.Set(sum.TotalCostOre)
	s.moves.WithLabelValues("swap").Set(float64(sum.SwapMoves))
	s.moves.WithLabelValues("arbitrage").Set(float64(sum.ArbitrageMoves))
	s.moves.WithLabelValues("safety").Set(float64(sum.SafetyPasses))
	s.duration.Observe(sum.SolveDuration.Seconds())
	return nil
}
