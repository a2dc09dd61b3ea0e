package metrics

import "time"

// PlanSummary describes the outcome of one solver run.
type PlanSummary struct {
	RunID          string
	TargetDate     string
	Slots          int
	CeilingWh      float64
	PeakExceeded   bool
	TotalCostOre   float64
	SafetyPasses   int
	SwapMoves      int
	ArbitrageMoves int
	SolveDuration  time.Duration
	Time           time.Time
}

// SlotPoint is the planned state of a single quarter-hour slot.
type SlotPoint struct {
	RunID     string
	SlotTime  string
	PriceOre  float64
	ImportWh  float64
	BatteryWh float64
	Time      time.Time
}

// Sink records plan outcomes for observability purposes.
type Sink interface {
	RecordPlanSummary(sum PlanSummary) error
}

// SlotRecorder records per-slot plan points. Implemented by sinks that can
// store a full curve, such as the Influx sink.
type SlotRecorder interface {
	RecordSlots(points []SlotPoint) error
}

// NopSink discards all records.
type NopSink struct{}

// RecordPlanSummary implements Sink.
func (NopSink) RecordPlanSummary(PlanSummary) error { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
