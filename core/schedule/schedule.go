// Package schedule assembles the solver's input timeline from user-supplied
// step schedules and the day-ahead price curve.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/homevolt/dayahead/core/plan"
)

// Config describes the household schedules and the planning window.
type Config struct {
	// ConsumptionW maps "HH:MM" to household power draw in W. Each value
	// holds until the next entry.
	ConsumptionW map[string]float64 `json:"consumption_w"`
	// SolarW maps "HH:MM" to expected solar production in W, step semantics
	// as ConsumptionW.
	SolarW map[string]float64 `json:"solar_w"`
	// FudgeFactor scales the consumption schedule to absorb systematic
	// under-estimation.
	FudgeFactor float64 `json:"fudge_factor"`
	// ExpectedConsumptionKWh is the expected total over the window, used by
	// the sanity check. Zero disables the check.
	ExpectedConsumptionKWh float64 `json:"expected_consumption_kwh"`
	// SanityTolerancePct is the allowed deviation before a warning.
	SanityTolerancePct float64 `json:"sanity_tolerance_pct"`

	// StartTime and EndTime bound the planning window; slots cover
	// [StartTime, EndTime) in quarter steps.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// NightWindowStart/End delimit the cheap night-charge window used to
	// derive the energy cost already stored in the battery.
	NightWindowStart string `json:"night_window_start"`
	NightWindowEnd   string `json:"night_window_end"`
	// ChargeDurationHours is how long the battery charges overnight.
	ChargeDurationHours float64 `json:"charge_duration_hours"`
	// DefaultBasePrice is the fallback stored-energy cost in oere/kWh when
	// the night window has too little price data.
	DefaultBasePrice float64 `json:"default_base_price"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.FudgeFactor == 0 {
		c.FudgeFactor = 1
	}
	if c.StartTime == "" {
		c.StartTime = "00:00"
	}
	if c.EndTime == "" {
		c.EndTime = "23:45"
	}
	if c.NightWindowStart == "" {
		c.NightWindowStart = "00:00"
	}
	if c.NightWindowEnd == "" {
		c.NightWindowEnd = "06:00"
	}
	if c.ChargeDurationHours == 0 {
		c.ChargeDurationHours = 3
	}
}

// Validate checks the window bounds.
func (c Config) Validate() error {
	for _, ts := range []string{c.StartTime, c.EndTime, c.NightWindowStart, c.NightWindowEnd} {
		if _, err := parseClock(ts); err != nil {
			return err
		}
	}
	start, _ := parseClock(c.StartTime)
	end, _ := parseClock(c.EndTime)
	if start >= end {
		return fmt.Errorf("start_time %s not before end_time %s", c.StartTime, c.EndTime)
	}
	return nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(ts string) (int, error) {
	parts := strings.SplitN(ts, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", ts)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", ts)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", ts)
	}
	return h*60 + m, nil
}

// RoundDownToQuarter floors a clock time to the start of its quarter.
func RoundDownToQuarter(ts string) (string, error) {
	mins, err := parseClock(ts)
	if err != nil {
		return "", err
	}
	mins -= mins % 15
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60), nil
}

// stepValue returns the schedule value in effect at the given time: the entry
// with the latest key not after ts, or zero before the first entry.
func stepValue(sched map[string]float64, ts string) float64 {
	keys := make([]string, 0, len(sched))
	for k := range sched {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var current float64
	for _, k := range keys {
		if k <= ts {
			current = sched[k]
		} else {
			break
		}
	}
	return current
}

// BuildTimeline merges the price curve with the consumption and solar step
// schedules into an ordered quarter-hour timeline over [StartTime, EndTime).
// Prices are looked up per quarter; quarters without a price get zero.
func BuildTimeline(cfg Config, prices map[string]float64) plan.Timeline {
	cfg.SetDefaults()
	start, _ := parseClock(cfg.StartTime)
	end, _ := parseClock(cfg.EndTime)

	var t plan.Timeline
	for mins := start; mins < end; mins += 15 {
		ts := fmt.Sprintf("%02d:%02d", mins/60, mins%60)
		consWh := stepValue(cfg.ConsumptionW, ts) * cfg.FudgeFactor / 4
		solarWh := stepValue(cfg.SolarW, ts) / 4
		t = append(t, plan.Slot{
			Index:         len(t),
			Time:          ts,
			Hour:          ts[:2],
			Price:         prices[ts],
			ConsumptionWh: consWh,
			SolarWh:       solarWh,
			BaseNetLoadWh: consWh - solarWh,
		})
	}
	return t
}

// BasePrice estimates the cost of the energy already stored in the battery:
// the mean of the cheapest night-window quarters covering the overnight
// charge duration, plus grid fees. Falls back to the configured default when
// the window has too little data.
func BasePrice(cfg Config, prices map[string]float64, feesOre float64) float64 {
	cfg.SetDefaults()
	var night []float64
	for ts, p := range prices {
		if cfg.NightWindowStart <= ts && ts < cfg.NightWindowEnd {
			night = append(night, p)
		}
	}
	needed := int(cfg.ChargeDurationHours * 4)
	if len(night) < needed || needed == 0 {
		return cfg.DefaultBasePrice
	}
	sort.Float64s(night)
	return stat.Mean(night[:needed], nil) + feesOre
}

// SanityCheck sums the scheduled consumption over the window and returns the
// total in kWh and its deviation from the expected total in percent.
func SanityCheck(cfg Config) (totalKWh, deviationPct float64) {
	cfg.SetDefaults()
	start, _ := parseClock(cfg.StartTime)
	end, _ := parseClock(cfg.EndTime)
	var totalWh float64
	for mins := start; mins < end; mins += 15 {
		ts := fmt.Sprintf("%02d:%02d", mins/60, mins%60)
		totalWh += stepValue(cfg.ConsumptionW, ts) * cfg.FudgeFactor / 4
	}
	totalKWh = totalWh / 1000
	if cfg.ExpectedConsumptionKWh > 0 {
		deviationPct = (totalKWh - cfg.ExpectedConsumptionKWh) / cfg.ExpectedConsumptionKWh * 100
	}
	return totalKWh, deviationPct
}
