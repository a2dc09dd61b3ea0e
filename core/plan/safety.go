package plan

import "sort"

// fillCandidate is a slot able to absorb extra grid import before a
// violating slot.
type fillCandidate struct {
	index      int
	price      float64
	headroomWh float64
	hour       string
}

// enforceThrottle repairs slots where the projected discharge exceeds the
// low-charge limit while the battery starts the slot under the threshold.
// Each pass fixes the first violation by importing the missing energy into
// earlier slots; the loop is bounded, and an unresolved violation is left in
// place for reporting rather than treated as fatal. Returns the passes used
// and whether a violation remains.
func (s *Solver) enforceThrottle(t Timeline, startWh float64) (int, bool) {
	passes := 0
	for passes < s.cfg.MaxSafetyPasses {
		passes++
		violation := false
		profile := Profile(s.cfg, startWh, t.GridCommands(), t)
		for i := range t {
			soc := startCharge(profile, i, startWh)
			discharge := t[i].Discharge(s.cfg.BiasWh)
			if discharge > s.cfg.LowChargeMaxDischargeWh && soc < s.cfg.LowChargeThresholdWh {
				needed := s.cfg.LowChargeThresholdWh - soc + 1
				s.log.Debugf("slot %s: low-charge throttle violation, lifting charge by %.0f Wh", t[i].Time, needed)
				s.fillBefore(t, needed, i, startWh)
				violation = true
				break
			}
		}
		if !violation {
			return passes, false
		}
	}
	s.log.Warnf("low-charge violation unresolved after %d passes", passes)
	return passes, true
}

// fillBefore distributes needed Wh of extra grid import over slots up to and
// including end, cheapest first. Pass 1 respects the hourly peak budget;
// pass 2 falls back to rate and capacity headroom only. Anything still
// unmet lands on the first slot as a last resort.
func (s *Solver) fillBefore(t Timeline, neededWh float64, end int, startWh float64) {
	usage := hourlyUsage(t, s.cfg.BiasWh)

	remaining := neededWh
	for _, c := range s.fillCandidates(t, end, startWh, usage, false) {
		if remaining <= 0 {
			break
		}
		take := remaining
		if take > c.headroomWh {
			take = c.headroomWh
		}
		t[c.index].GridWh += take
		usage[c.hour] += take
		remaining -= take
	}

	if remaining > 0 {
		for _, c := range s.fillCandidates(t, end, startWh, usage, true) {
			if remaining <= 0 {
				break
			}
			take := remaining
			if take > c.headroomWh {
				take = c.headroomWh
			}
			t[c.index].GridWh += take
			remaining -= take
		}
	}

	if remaining > 0 {
		t[0].GridWh += remaining
	}
}

// fillCandidates lists slots up to end with room to charge before the
// violating slot, sorted ascending by price. Capacity headroom is measured
// against the highest projected charge between the candidate and end, so the
// added import cannot overflow the battery anywhere on the way.
func (s *Solver) fillCandidates(t Timeline, end int, startWh float64, usage map[string]float64, ignorePeak bool) []fillCandidate {
	profile := Profile(s.cfg, startWh, t.GridCommands(), t)
	var cands []fillCandidate
	for i := 0; i <= end; i++ {
		maxAhead := profile[i]
		for k := i + 1; k <= end; k++ {
			if profile[k] > maxAhead {
				maxAhead = profile[k]
			}
		}
		capHeadroom := s.cfg.BatteryCapacityWh - maxAhead
		if capHeadroom <= 1 {
			continue
		}

		var headroom float64
		if ignorePeak {
			headroom = capHeadroom
			if headroom > s.cfg.MaxDischargeWh {
				headroom = s.cfg.MaxDischargeWh
			}
		} else {
			peakHeadroom := s.cfg.PreviousPeakWh - usage[t[i].Hour]
			if peakHeadroom <= 1 {
				continue
			}
			headroom = capHeadroom
			if headroom > peakHeadroom {
				headroom = peakHeadroom
			}
		}
		cands = append(cands, fillCandidate{index: i, price: t[i].Price, headroomWh: headroom, hour: t[i].Hour})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].price < cands[b].price })
	return cands
}
