package plan

// Profile computes the end-of-slot battery charge implied by the given grid
// decisions. Each slot accumulates (grid + bias) - baseNetLoad onto the
// running charge, clamped so it never exceeds the capacity.
//
// The accumulation is deliberately not floor-clamped at zero or the reserve:
// the phases validate their own decisions against the raw trajectory, and a
// silent floor here would hide infeasible plans from them.
//
// Pure and O(n); this is the feasibility oracle every phase replays before
// accepting a tentative change.
func Profile(cfg Config, startWh float64, grid []float64, t Timeline) []float64 {
	curr := startWh
	profile := make([]float64, len(grid))
	for i, g := range grid {
		curr += (g + cfg.BiasWh) - t[i].BaseNetLoadWh
		if curr > cfg.BatteryCapacityWh {
			curr = cfg.BatteryCapacityWh
		}
		profile[i] = curr
	}
	return profile
}

// startCharge returns the battery charge at the start of slot i given the
// profile of end-of-slot charges.
func startCharge(profile []float64, i int, startWh float64) float64 {
	if i == 0 {
		return startWh
	}
	return profile[i-1]
}
