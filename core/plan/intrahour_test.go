package plan

import (
	"math"
	"testing"
)

func reallocConfig() Config {
	return Config{
		BatteryCapacityWh: 10000,
		MaxDischargeWh:    1250,
		PreviousPeakWh:    4000,
	}
}

func TestReallocateHours_MovesImportToCheapQuarters(t *testing.T) {
	s := New(reallocConfig(), nil)
	tl := makeTimeline(
		[]float64{500, 500, 500, 500},
		[]float64{40, 10, 20, 30},
	)
	tl[0].GridWh = 500
	tl[2].GridWh = 250
	tl[3].GridWh = 250

	s.reallocateHours(tl, 5000)

	// The hour's 1000 Wh budget lands on the two cheapest quarters, each
	// bounded by its own 500 Wh load.
	want := []float64{0, 500, 500, 0}
	var total float64
	for i := range tl {
		imp := tl[i].Import(s.cfg.BiasWh)
		total += imp
		if math.Abs(imp-want[i]) > 1e-6 {
			t.Errorf("slot %d: import %.3f, want %.1f", i, imp, want[i])
		}
	}
	if math.Abs(total-1000) > 1e-6 {
		t.Errorf("hourly volume changed: %.3f, want 1000", total)
	}
}

func TestReallocateHours_SpillsIntoChargingHeadroom(t *testing.T) {
	s := New(reallocConfig(), nil)
	tl := makeTimeline(
		[]float64{500, 500, 500, 500},
		[]float64{40, 10, 20, 30},
	)
	tl[0].GridWh = 700
	tl[1].GridWh = 700
	tl[2].GridWh = 600
	tl[3].GridWh = 500

	s.reallocateHours(tl, 5000)

	// 2500 Wh exceeds the 2000 Wh of load; the 500 Wh surplus charges the
	// battery in the cheapest quarter.
	if imp := tl[1].Import(s.cfg.BiasWh); math.Abs(imp-1000) > 1e-6 {
		t.Errorf("slot 1: import %.3f, want 1000 (load plus charge spill)", imp)
	}
	var total float64
	for i := range tl {
		total += tl[i].Import(s.cfg.BiasWh)
	}
	if math.Abs(total-2500) > 1e-6 {
		t.Errorf("hourly volume changed: %.3f, want 2500", total)
	}
}

func TestReallocateHours_RollsBackInfeasibleHour(t *testing.T) {
	cfg := reallocConfig()
	cfg.MinReserveWh = 4600
	s := New(cfg, nil)
	tl := makeTimeline(
		[]float64{500, 500, 500, 500},
		[]float64{40, 10, 20, 30},
	)
	orig := []float64{500, 0, 250, 250}
	for i := range orig {
		tl[i].GridWh = orig[i]
	}

	// Reallocating would make slot 0 discharge 500 and dip to 4500, under the
	// reserve; the whole hour reverts.
	s.reallocateHours(tl, 5000)
	for i := range tl {
		if tl[i].GridWh != orig[i] {
			t.Errorf("slot %d: grid %.3f, want rollback to %.1f", i, tl[i].GridWh, orig[i])
		}
	}
}

func TestReallocateHours_SkipsExportingHour(t *testing.T) {
	s := New(reallocConfig(), nil)
	tl := makeTimeline(
		[]float64{0, 0, 0, 0},
		[]float64{40, 10, 20, 30},
	)
	tl[0].GridWh = -200 // exporting, nothing to redistribute

	s.reallocateHours(tl, 5000)
	if tl[0].GridWh != -200 {
		t.Errorf("slot 0: grid %.3f, want untouched -200", tl[0].GridWh)
	}
}
