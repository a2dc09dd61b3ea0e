package plan

import (
	"github.com/google/uuid"

	"github.com/homevolt/dayahead/core/logger"
)

// Snapshot is an immutable copy of the timeline after one phase, kept for
// reporting and animation. Entries are append-only and never mutated after
// capture.
type Snapshot struct {
	Label       string
	Slots       Timeline
	StartWh     float64
	PeakLimitWh float64
}

// Stats counts what the phases actually did during a run.
type Stats struct {
	SafetyPasses        int
	UnresolvedViolation bool
	SwapMoves           int
	ArbitrageMoves      int
}

// Result is the outcome of one solver run.
type Result struct {
	RunID        string
	Timeline     Timeline
	CeilingWh    float64 // chosen flat import ceiling per quarter
	PeakExceeded bool    // ceiling would set a new monthly peak
	Stats        Stats
	History      []Snapshot
}

// Solver turns a priced baseline timeline into a cost- and peak-aware
// dispatch plan. Phases run strictly in sequence and each one has exclusive
// write access to the timeline for the duration of its pass.
type Solver struct {
	cfg     Config
	log     logger.Logger
	history []Snapshot
}

// New creates a Solver. A nil logger falls back to a no-op logger.
func New(cfg Config, log logger.Logger) *Solver {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Solver{cfg: cfg, log: log}
}

// Run executes the full phase sequence on the timeline and returns the final
// plan. The timeline is mutated in place; the returned history holds deep
// copies per phase. An empty timeline yields an empty result and no phases
// are executed.
func (s *Solver) Run(t Timeline, startWh float64) Result {
	res := Result{RunID: uuid.NewString()}
	s.history = nil
	if len(t) == 0 {
		s.log.Warnf("run %s: empty timeline, nothing to plan", res.RunID)
		return res
	}
	s.log.Infof("run %s: planning %d slots, start charge %.0f Wh", res.RunID, len(t), startWh)

	// Baseline snapshot: grid covers the net load, battery idle.
	orig := t.GridCommands()
	for i := range t {
		t[i].GridWh = t[i].BaseNetLoadWh - s.cfg.BiasWh
	}
	s.snapshot(t, startWh, "baseline (no battery)")
	for i := range t {
		t[i].GridWh = orig[i]
	}

	res.CeilingWh, res.PeakExceeded = s.peakShave(t, startWh)
	s.snapshot(t, startWh, "peak shaving")

	res.Stats.SafetyPasses, res.Stats.UnresolvedViolation = s.enforceThrottle(t, startWh)
	s.snapshot(t, startWh, "low-charge safety")

	s.fillCheapHours(t, startWh, s.cfg.PreviousPeakWh)
	s.snapshot(t, startWh, "cheap-hour fill")

	s.reallocateHours(t, startWh)
	s.snapshot(t, startWh, "intra-hour reallocation")

	if s.cfg.EnableArbitrage {
		swapCeiling := s.cfg.PreviousPeakWh / 4
		if res.PeakExceeded {
			swapCeiling = res.CeilingWh
		}
		res.Stats.SwapMoves = s.swapEnergy(t, startWh, swapCeiling)
		res.Stats.ArbitrageMoves = s.activeArbitrage(t, startWh)
		s.snapshot(t, startWh, "arbitrage")
	} else {
		s.log.Infof("run %s: arbitrage disabled, skipping swap passes", res.RunID)
	}

	profile := Profile(s.cfg, startWh, t.GridCommands(), t)
	for i := range t {
		t[i].BatteryWh = profile[i]
	}
	s.snapshot(t, startWh, "final plan")

	res.Timeline = t
	res.History = s.history
	return res
}

// snapshot appends a deep copy of the timeline with the battery trajectory
// refreshed, so later phases cannot disturb captured state.
func (s *Solver) snapshot(t Timeline, startWh float64, label string) {
	cp := t.Clone()
	profile := Profile(s.cfg, startWh, t.GridCommands(), t)
	for i := range cp {
		cp[i].BatteryWh = profile[i]
	}
	s.history = append(s.history, Snapshot{
		Label:       label,
		Slots:       cp,
		StartWh:     startWh,
		PeakLimitWh: s.cfg.PreviousPeakWh,
	})
}

// TotalCost sums the realized grid cost of the plan in oere. Exporting slots
// contribute negative cost at the spot price.
func TotalCost(t Timeline, biasWh float64) float64 {
	var total float64
	for i := range t {
		total += t[i].Import(biasWh) / 1000 * t[i].Price
	}
	return total
}
