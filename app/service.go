package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/homevolt/dayahead/config"
	coremetrics "github.com/homevolt/dayahead/core/metrics"
	"github.com/homevolt/dayahead/core/plan"
	"github.com/homevolt/dayahead/core/publish"
	"github.com/homevolt/dayahead/core/schedule"
	"github.com/homevolt/dayahead/infra/logger"
	"github.com/homevolt/dayahead/infra/metrics"
	"github.com/homevolt/dayahead/infra/mqtt"
	"github.com/homevolt/dayahead/pricing"
	"github.com/homevolt/dayahead/report"
)

// Service wires the price client, the timeline builder, the solver and the
// output surfaces into one planning pass.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	prices    *pricing.Client
	sink      coremetrics.Sink
	publisher publish.Publisher
	out       io.Writer

	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	var publisher publish.Publisher
	if cfg.Publish.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.Publish)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		publisher = pub
	}

	return &Service{
		cfg:         cfg,
		log:         logg,
		prices:      pricing.NewClient(cfg.Pricing, logger.New("pricing")),
		sink:        sink,
		publisher:   publisher,
		out:         os.Stdout,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// SetOutput redirects the report, mainly for tests.
func (s *Service) SetOutput(w io.Writer) { s.out = w }

// Run executes one full planning pass: fetch prices, build the timeline,
// solve, report and publish.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	date := time.Now()
	if s.cfg.TargetDate != "" {
		var err error
		date, err = time.Parse("2006-01-02", s.cfg.TargetDate)
		if err != nil {
			return fmt.Errorf("parse target_date: %w", err)
		}
	}

	prices, err := s.prices.QuarterPrices(ctx, date)
	if err != nil {
		if errors.Is(err, pricing.ErrNoPrices) {
			return fmt.Errorf("prices for %s: %w", date.Format("2006-01-02"), err)
		}
		return err
	}

	schedCfg := s.cfg.Schedule
	if s.cfg.StartFrom != "" {
		start, err := schedule.RoundDownToQuarter(s.cfg.StartFrom)
		if err != nil {
			return fmt.Errorf("parse start_from: %w", err)
		}
		s.log.Infof("live mode: planning from %s", start)
		schedCfg.StartTime = start
	}

	startWh := s.cfg.Plan.BatteryCapacityWh
	if s.cfg.CurrentChargeKWh != nil {
		startWh = *s.cfg.CurrentChargeKWh * 1000
		s.log.Infof("live mode: starting charge override %.1f%% (%.1f kWh)",
			startWh/s.cfg.Plan.BatteryCapacityWh*100, *s.cfg.CurrentChargeKWh)
	}

	totalKWh, deviationPct := schedule.SanityCheck(schedCfg)
	s.log.Infof("scheduled consumption %.2f kWh (%+.1f%% vs expected)", totalKWh, deviationPct)
	if schedCfg.SanityTolerancePct > 0 && math.Abs(deviationPct) > schedCfg.SanityTolerancePct {
		s.log.Warnf("consumption schedule deviates %.1f%% from expected total", deviationPct)
	}

	timeline := schedule.BuildTimeline(schedCfg, prices)
	basePrice := schedule.BasePrice(schedCfg, prices, s.cfg.Plan.AdditionalFees)

	solver := plan.New(s.cfg.Plan, logger.New("solver"))
	started := time.Now()
	res := solver.Run(timeline, startWh)
	solveDuration := time.Since(started)

	report.Render(s.out, res, s.cfg.Plan, basePrice, s.cfg.Report)

	if err := s.recordMetrics(res, date, solveDuration); err != nil {
		s.log.Errorf("record metrics: %v", err)
	}

	if s.publisher != nil && len(res.Timeline) > 0 {
		msg := publish.PlanMessage{
			RunID:     res.RunID,
			Date:      date.Format("2006-01-02"),
			CeilingWh: res.CeilingWh,
			Setpoints: publish.Setpoints(res.Timeline, s.cfg.Plan.BiasWh),
		}
		if err := s.publisher.PublishPlan(ctx, msg); err != nil {
			s.log.Errorf("publish plan: %v", err)
		}
	}
	return nil
}

// recordMetrics pushes the run outcome to the configured sinks.
func (s *Service) recordMetrics(res plan.Result, date time.Time, solveDuration time.Duration) error {
	now := time.Now()
	sum := coremetrics.PlanSummary{
		RunID:          res.RunID,
		TargetDate:     date.Format("2006-01-02"),
		Slots:          len(res.Timeline),
		CeilingWh:      res.CeilingWh,
		PeakExceeded:   res.PeakExceeded,
		TotalCostOre:   plan.TotalCost(res.Timeline, s.cfg.Plan.BiasWh),
		SafetyPasses:   res.Stats.SafetyPasses,
		SwapMoves:      res.Stats.SwapMoves,
		ArbitrageMoves: res.Stats.ArbitrageMoves,
		SolveDuration:  solveDuration,
		Time:           now,
	}
	if err := s.sink.RecordPlanSummary(sum); err != nil {
		return err
	}
	if rec, ok := s.sink.(coremetrics.SlotRecorder); ok {
		points := make([]coremetrics.SlotPoint, len(res.Timeline))
		for i, sl := range res.Timeline {
			points[i] = coremetrics.SlotPoint{
				RunID:     res.RunID,
				SlotTime:  sl.Time,
				PriceOre:  sl.Price,
				ImportWh:  sl.Import(s.cfg.Plan.BiasWh),
				BatteryWh: sl.BatteryWh,
				Time:      now,
			}
		}
		return rec.RecordSlots(points)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if p, ok := s.publisher.(*mqtt.PahoPublisher); ok && p != nil {
		p.Close()
	}
	return nil
}
