package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/homevolt/dayahead/core/metrics"
	"github.com/homevolt/dayahead/infra/logger"
)

// InfluxSink writes plan summaries and per-slot curves to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlanSummary writes the run outcome as a single point.
func (s *InfluxSink) RecordPlanSummary(sum coremetrics.PlanSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", sum.RunID).
		AddTag("target_date", sum.TargetDate).
		AddTag("peak_exceeded", strconv.FormatBool(sum.PeakExceeded)).
		AddField("slots", sum.Slots).
		AddField("ceiling_wh", round3(sum.CeilingWh)).
		AddField("total_cost_ore", round3(sum.TotalCostOre)).
		AddField("safety_passes", sum.SafetyPasses).
		AddField("swap_moves", sum.SwapMoves).
		AddField("arbitrage_moves", sum.ArbitrageMoves).
		AddField("solve_seconds", sum.SolveDuration.Seconds()).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSlots writes the full planned curve, one point per quarter.
func (s *InfluxSink) RecordSlots(points []coremetrics.SlotPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, pt := range points {
		p := write.NewPointWithMeasurement("plan_slot").
			AddTag("run_id", pt.RunID).
			AddTag("slot_time", pt.SlotTime).
			AddField("price_ore", round3(pt.PriceOre)).
			AddField("import_wh", round3(pt.ImportWh)).
			AddField("battery_wh", round3(pt.BatteryWh)).
			SetTime(pt.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
