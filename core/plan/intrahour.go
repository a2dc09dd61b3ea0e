package plan

import "sort"

// reallocateHours redistributes each clock hour's already-fixed grid import
// across the hour's four slots, placing it on the cheapest quarters first.
// The hourly volume is preserved; only its split changes. Leftover budget
// beyond the load-driven ceilings spills into battery-charging headroom in
// the same price order. Every hour is validated slot by slot against the
// discharge-rate, low-charge and reserve constraints with a running charge
// estimate; a failing hour is rolled back wholesale.
func (s *Solver) reallocateHours(t Timeline, startWh float64) {
	soc := startWh
	for _, hour := range t.hours() {
		var indices []int
		for i := range t {
			if t[i].Hour == hour {
				indices = append(indices, i)
			}
		}

		var hourTotal float64
		for _, i := range indices {
			hourTotal += t[i].Import(s.cfg.BiasWh)
		}
		if hourTotal <= 0 {
			// Nothing to redistribute; just advance the charge estimate.
			for _, i := range indices {
				soc -= t[i].Discharge(s.cfg.BiasWh)
			}
			continue
		}

		byPrice := append([]int(nil), indices...)
		sort.Slice(byPrice, func(a, b int) bool { return t[byPrice[a]].Price < t[byPrice[b]].Price })

		allocated := make(map[int]float64, len(indices))
		remaining := hourTotal
		for _, i := range byPrice {
			maxTake := t[i].BaseNetLoadWh
			if maxTake < 0 {
				maxTake = 0
			}
			take := remaining
			if take > maxTake {
				take = maxTake
			}
			allocated[i] = take
			remaining -= take
		}
		if remaining > 0 {
			for _, i := range byPrice {
				room := t[i].BaseNetLoadWh + s.cfg.MaxDischargeWh - allocated[i]
				if room > 0 {
					take := remaining
					if take > room {
						take = room
					}
					allocated[i] += take
					remaining -= take
				}
				if remaining <= 0 {
					break
				}
			}
		}

		original := make(map[int]float64, len(indices))
		for _, i := range indices {
			original[i] = t[i].GridWh
			t[i].GridWh = allocated[i] - s.cfg.BiasWh
		}

		tempSoc := soc
		valid := true
		for _, i := range indices {
			discharge := t[i].Discharge(s.cfg.BiasWh)
			if discharge > s.cfg.MaxDischargeWh {
				valid = false
			}
			if tempSoc < s.cfg.LowChargeThresholdWh && discharge > s.cfg.LowChargeMaxDischargeWh {
				valid = false
			}
			if tempSoc-discharge < s.cfg.MinReserveWh {
				valid = false
			}
			tempSoc -= discharge
			if tempSoc > s.cfg.BatteryCapacityWh {
				tempSoc = s.cfg.BatteryCapacityWh
			}
		}

		if valid {
			soc = tempSoc
			continue
		}
		s.log.Debugf("hour %s: reallocation infeasible, rolling back", hour)
		for _, i := range indices {
			t[i].GridWh = original[i]
		}
		for _, i := range indices {
			soc -= t[i].Discharge(s.cfg.BiasWh)
		}
	}
}
