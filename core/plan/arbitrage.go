package plan

// swapEnergy relocates fixed-size import increments from slots that are
// discharging into cheaper power towards later, more expensive slots. Each
// iteration picks the feasible pair with the widest price spread above the
// cycle cost and moves one increment; the loop stops at the iteration cap or
// when no improving pair remains. Feasibility requires the later slot to have
// rate and throttle headroom and the battery to stay off its capacity clamp
// along the path between the two slots.
func (s *Solver) swapEnergy(t Timeline, startWh, ceilingWh float64) int {
	// Never force existing imports below the ceiling the earlier phases
	// already committed to.
	for i := range t {
		if imp := t[i].Import(s.cfg.BiasWh); imp > ceilingWh {
			ceilingWh = imp
		}
	}

	inc := s.cfg.SwapIncrementWh
	moves := 0
	for iter := 0; iter < s.cfg.MaxSwapIterations; iter++ {
		profile := Profile(s.cfg, startWh, t.GridCommands(), t)

		bestSrc, bestDst := -1, -1
		var bestSpread float64
		for src := range t {
			if t[src].Discharge(s.cfg.BiasWh) <= 0 {
				continue
			}
			if t[src].Import(s.cfg.BiasWh) >= ceilingWh {
				continue
			}
			for dst := src + 1; dst < len(t); dst++ {
				spread := t[dst].Price - t[src].Price
				if spread < s.cfg.CycleCost || spread <= bestSpread {
					continue
				}
				if t[dst].Discharge(s.cfg.BiasWh) >= s.cfg.MaxDischargeWh {
					continue
				}
				socDst := startCharge(profile, dst, startWh)
				if socDst < s.cfg.LowChargeThresholdWh && t[dst].Discharge(s.cfg.BiasWh) >= s.cfg.LowChargeMaxDischargeWh {
					continue
				}
				if !s.pathBelowCapacity(profile, src, dst, 1) {
					continue
				}
				bestSpread = spread
				bestSrc, bestDst = src, dst
			}
		}
		if bestSrc < 0 {
			break
		}
		t[bestSrc].GridWh += inc
		t[bestDst].GridWh -= inc
		moves++
	}
	s.log.Infof("swap pass: %d increments relocated", moves)
	return moves
}

// activeArbitrage buys increments in cheap earlier slots to sell them in
// expensive later slots. Profit is the sell price minus the full purchase
// cost (spot plus fees) minus the cycle cost, and a cycle is only taken when
// it clears the configured minimum spread. Same bounded best-improvement
// search and path feasibility rules as the swap pass.
func (s *Solver) activeArbitrage(t Timeline, startWh float64) int {
	usage := hourlyUsage(t, s.cfg.BiasWh)
	inc := s.cfg.SwapIncrementWh
	moves := 0
	for iter := 0; iter < s.cfg.MaxSwapIterations; iter++ {
		profile := Profile(s.cfg, startWh, t.GridCommands(), t)

		bestBuy, bestSell := -1, -1
		var bestProfit float64
		for buy := range t {
			if s.cfg.PreviousPeakWh-usage[t[buy].Hour] < inc {
				continue
			}
			if startCharge(profile, buy, startWh) >= s.cfg.BatteryCapacityWh-1 {
				continue
			}
			for sell := buy + 1; sell < len(t); sell++ {
				profit := t[sell].Price - (t[buy].Price + s.cfg.AdditionalFees) - s.cfg.CycleCost
				if profit < s.cfg.MinSellSpread || profit <= bestProfit {
					continue
				}
				if t[sell].Discharge(s.cfg.BiasWh)+inc > s.cfg.MaxDischargeWh {
					continue
				}
				if startCharge(profile, sell, startWh) < s.cfg.LowChargeThresholdWh &&
					t[sell].Discharge(s.cfg.BiasWh)+inc > s.cfg.LowChargeMaxDischargeWh {
					continue
				}
				if !s.pathBelowCapacity(profile, buy, sell, inc) {
					continue
				}
				bestProfit = profit
				bestBuy, bestSell = buy, sell
			}
		}
		if bestBuy < 0 {
			break
		}
		t[bestBuy].GridWh += inc
		t[bestSell].GridWh -= inc
		usage[t[bestBuy].Hour] += inc
		moves++
	}
	s.log.Infof("active arbitrage: %d increments cycled", moves)
	return moves
}

// pathBelowCapacity checks that every end-of-slot charge from src up to (but
// excluding) dst leaves at least need Wh of room under the capacity, so
// energy added at src can be carried to dst without saturating the battery
// on the way.
func (s *Solver) pathBelowCapacity(profile []float64, src, dst int, need float64) bool {
	for k := src; k < dst; k++ {
		if profile[k]+need > s.cfg.BatteryCapacityWh {
			return false
		}
	}
	return true
}
