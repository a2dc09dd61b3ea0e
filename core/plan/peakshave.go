package plan

// minPeakCeiling binary-searches the smallest flat per-quarter import ceiling
// the battery can hold. A candidate is feasible when no single slot needs more
// than the per-slot discharge limit to stay under it and the summed excess
// over the window fits in the available battery energy. Twenty halvings over
// [0, 10000] Wh converge well below one watt-hour.
func minPeakCeiling(cfg Config, t Timeline, availableWh float64) float64 {
	low, high := 0.0, 10000.0
	best := high
	for iter := 0; iter < 20; iter++ {
		mid := (low + high) / 2
		possible := true
		var totalNeeded float64
		for i := range t {
			usable := mid - cfg.BiasWh
			if usable < 0 {
				usable = 0
			}
			needed := t[i].BaseNetLoadWh - usable
			if needed < 0 {
				needed = 0
			}
			if needed > cfg.MaxDischargeWh {
				possible = false
			}
			totalNeeded += needed
		}
		if possible && totalNeeded <= availableWh {
			best = mid
			high = mid
		} else {
			low = mid
		}
	}
	return best
}

// peakShave derives the initial dispatch plan: hold grid import at a flat
// ceiling and let the battery cover the rest, capped by the per-slot rate
// limit and the reserve. Returns the chosen per-quarter ceiling and whether
// it would exceed the previous monthly peak.
func (s *Solver) peakShave(t Timeline, startWh float64) (float64, bool) {
	usable := startWh - s.cfg.MinReserveWh
	if usable < 0 {
		usable = 0
	}

	var ceiling float64
	if s.cfg.ManualCeilingWh > 0 {
		ceiling = s.cfg.ManualCeilingWh / 4
		s.log.Infof("using manual import ceiling: %.1f Wh/quarter", ceiling)
	} else {
		ceiling = minPeakCeiling(s.cfg, t, usable)
		s.log.Infof("minimal feasible import ceiling: %.1f Wh/quarter", ceiling)
	}

	monthlyPeak := s.cfg.PreviousPeakWh / 4
	exceeded := ceiling > monthlyPeak
	if exceeded {
		s.log.Warnf("new monthly peak expected: +%.0f W over previous", (ceiling-monthlyPeak)*4)
	} else {
		s.log.Infof("ceiling stays below previous monthly peak")
	}

	soc := startWh
	for i := range t {
		fromGrid := ceiling - s.cfg.BiasWh
		if fromGrid < 0 {
			fromGrid = 0
		}
		discharge := t[i].BaseNetLoadWh - fromGrid
		if discharge < 0 {
			discharge = 0
		}
		if discharge > s.cfg.MaxDischargeWh {
			discharge = s.cfg.MaxDischargeWh
		}
		// Never drain under the reserve; the slot's realized import may
		// exceed the ceiling instead.
		if soc-discharge < s.cfg.MinReserveWh {
			discharge = soc - s.cfg.MinReserveWh
			if discharge < 0 {
				discharge = 0
			}
		}
		soc -= discharge
		t[i].GridWh = (t[i].BaseNetLoadWh - discharge) - s.cfg.BiasWh
		t[i].BatteryWh = soc
	}
	return ceiling, exceeded
}
