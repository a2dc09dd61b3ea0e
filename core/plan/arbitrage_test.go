package plan

import (
	"math"
	"testing"
)

func arbitrageConfig() Config {
	return Config{
		BatteryCapacityWh: 1000,
		MaxDischargeWh:    1250,
		PreviousPeakWh:    10000,
		EnableArbitrage:   true,
	}
}

func TestSwapEnergy_MovesDischargeToExpensiveSlots(t *testing.T) {
	s := New(arbitrageConfig(), nil)
	tl := makeTimeline(
		[]float64{100, 100, 100, 100},
		[]float64{10, 50, 10, 50},
	)

	// Full battery covers all load; swapping shifts the discharge budget from
	// the 10-oere slots to the 50-oere slots, 50 Wh at a time: two moves per
	// cheap/expensive pair.
	moves := s.swapEnergy(tl, 1000, 2500)
	if moves != 4 {
		t.Fatalf("moves = %d, want 4", moves)
	}
	want := []float64{100, -100, 100, -100}
	for i := range tl {
		if imp := tl[i].Import(s.cfg.BiasWh); math.Abs(imp-want[i]) > 1e-6 {
			t.Errorf("slot %d: import %.3f, want %.1f", i, imp, want[i])
		}
	}

	// Total cost must beat the no-battery baseline where grid covers the load.
	baseline := 0.0
	for i := range tl {
		baseline += tl[i].BaseNetLoadWh / 1000 * tl[i].Price
	}
	if cost := TotalCost(tl, s.cfg.BiasWh); cost >= baseline {
		t.Errorf("cost %.3f oere, want below baseline %.3f", cost, baseline)
	}
}

func TestSwapEnergy_IterationCap(t *testing.T) {
	cfg := arbitrageConfig()
	cfg.MaxSwapIterations = 1
	s := New(cfg, nil)
	tl := makeTimeline(
		[]float64{100, 100, 100, 100},
		[]float64{10, 50, 10, 50},
	)

	if moves := s.swapEnergy(tl, 1000, 2500); moves != 1 {
		t.Fatalf("moves = %d, want 1 at the iteration cap", moves)
	}
}

func TestSwapEnergy_NoMoveBelowCycleCost(t *testing.T) {
	cfg := arbitrageConfig()
	cfg.CycleCost = 45 // wider than the 40 oere spread
	s := New(cfg, nil)
	tl := makeTimeline(
		[]float64{100, 100, 100, 100},
		[]float64{10, 50, 10, 50},
	)

	if moves := s.swapEnergy(tl, 1000, 2500); moves != 0 {
		t.Fatalf("moves = %d, want 0 when the spread cannot pay the cycle cost", moves)
	}
}

func TestActiveArbitrage_BuysCheapSellsExpensive(t *testing.T) {
	cfg := arbitrageConfig()
	cfg.MinSellSpread = 5
	s := New(cfg, nil)
	tl := makeTimeline(
		[]float64{0, 0},
		[]float64{10, 50},
	)

	// 100 Wh of headroom at start charge 900: exactly two 50 Wh increments fit
	// before the capacity blocks the path.
	moves := s.activeArbitrage(tl, 900)
	if moves != 2 {
		t.Fatalf("moves = %d, want 2", moves)
	}
	if imp := tl[0].Import(s.cfg.BiasWh); math.Abs(imp-100) > 1e-6 {
		t.Errorf("buy slot import = %.3f, want 100", imp)
	}
	if imp := tl[1].Import(s.cfg.BiasWh); math.Abs(imp+100) > 1e-6 {
		t.Errorf("sell slot import = %.3f, want -100", imp)
	}
	profile := Profile(s.cfg, 900, tl.GridCommands(), tl)
	if profile[0] != 1000 || profile[1] != 900 {
		t.Errorf("profile = %v, want [1000 900]", profile)
	}
}

func TestActiveArbitrage_RequiresMinimumSpread(t *testing.T) {
	cfg := arbitrageConfig()
	cfg.MinSellSpread = 30
	cfg.AdditionalFees = 15 // profit 50 - (10+15) = 25, under the minimum
	s := New(cfg, nil)
	tl := makeTimeline(
		[]float64{0, 0},
		[]float64{10, 50},
	)

	if moves := s.activeArbitrage(tl, 500); moves != 0 {
		t.Fatalf("moves = %d, want 0 below the minimum sell spread", moves)
	}
}

func TestPathBelowCapacity(t *testing.T) {
	s := New(arbitrageConfig(), nil)
	profile := []float64{900, 990, 700}

	if !s.pathBelowCapacity(profile, 0, 1, 50) {
		t.Error("want room: 900+50 fits under 1000")
	}
	if s.pathBelowCapacity(profile, 0, 2, 50) {
		t.Error("want blocked: 990+50 overflows on the way")
	}
	if !s.pathBelowCapacity(profile, 1, 2, 10) {
		t.Error("want room: 990+10 exactly reaches capacity")
	}
}
