package plan

// Slot is one quarter-hour scheduling unit of the planning window.
//
// Price and the load figures are inputs fixed at construction time. GridWh is
// the decision variable the solver phases mutate: the net grid import for the
// slot, expressed as an offset from the configured setpoint bias. BatteryWh is
// derived from the grid decisions and is refreshed by the profile simulator;
// it is never authoritative on its own.
type Slot struct {
	Index int
	Time  string // wall-clock "HH:MM" label, unique and strictly increasing
	Hour  string // clock hour "HH" the slot belongs to

	Price         float64 // spot price in oere/kWh
	ConsumptionWh float64
	SolarWh       float64
	BaseNetLoadWh float64 // consumption minus solar production

	GridWh    float64 // decision: net grid import, offset from the bias
	BatteryWh float64 // derived end-of-slot charge
}

// Import returns the realized grid import for the slot including the bias.
func (s Slot) Import(biasWh float64) float64 {
	return s.GridWh + biasWh
}

// Discharge returns the battery energy the slot draws given its current grid
// decision. Negative values mean the battery is charging.
func (s Slot) Discharge(biasWh float64) float64 {
	return s.BaseNetLoadWh - s.Import(biasWh)
}

// Timeline is the ordered sequence of slots for one planning window. Slot
// count and order are fixed at construction; the solver phases only rewrite
// GridWh and the derived BatteryWh.
type Timeline []Slot

// Clone returns a deep copy of the timeline.
func (t Timeline) Clone() Timeline {
	cp := make(Timeline, len(t))
	copy(cp, t)
	return cp
}

// GridCommands returns the per-slot grid decisions in slot order.
func (t Timeline) GridCommands() []float64 {
	cmds := make([]float64, len(t))
	for i := range t {
		cmds[i] = t[i].GridWh
	}
	return cmds
}

// hourlyUsage sums the realized positive grid import per clock hour. Exported
// slots (negative import) do not count against the hourly budget.
func hourlyUsage(t Timeline, biasWh float64) map[string]float64 {
	usage := make(map[string]float64)
	for i := range t {
		if imp := t[i].Import(biasWh); imp > 0 {
			usage[t[i].Hour] += imp
		}
	}
	return usage
}

// hours returns the distinct clock hours of the timeline in chronological
// order.
func (t Timeline) hours() []string {
	var out []string
	seen := make(map[string]bool)
	for i := range t {
		if !seen[t[i].Hour] {
			seen[t[i].Hour] = true
			out = append(out, t[i].Hour)
		}
	}
	return out
}
