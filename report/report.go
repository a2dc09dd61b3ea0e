// Package report renders a finished dispatch plan as text tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/homevolt/dayahead/core/plan"
	"github.com/homevolt/dayahead/core/publish"
)

// Options controls what the renderer prints.
type Options struct {
	// Detailed adds the per-quarter table in front of the aggregated view.
	Detailed bool `json:"detailed"`
}

// block is a run of consecutive slots sharing the same control parameters.
type block struct {
	startTime string
	endTime   string
	params    string
	socStart  int
	socEnd    int
	cost      float64
	priceSum  float64
	count     int
}

// Render writes the plan tables: optionally a per-quarter breakdown, then
// aggregated control blocks, the hourly import check against the peak cap,
// and the projected total cost.
func Render(w io.Writer, res plan.Result, cfg plan.Config, basePrice float64, opts Options) {
	t := res.Timeline
	if len(t) == 0 {
		fmt.Fprintln(w, "no plan: empty timeline")
		return
	}

	fmt.Fprintf(w, "Stored energy cost basis: %.2f oere/kWh\n", basePrice)
	fmt.Fprintf(w, "Import ceiling: %.1f Wh/quarter", res.CeilingWh)
	if res.PeakExceeded {
		fmt.Fprintf(w, "  (EXCEEDS previous monthly peak)")
	}
	fmt.Fprintln(w)

	if opts.Detailed {
		renderDetailed(w, t, cfg)
	}
	renderBlocks(w, t, cfg)
	renderHourlyCheck(w, t, cfg)

	fmt.Fprintf(w, "TOTAL COST: %.2f kr\n", plan.TotalCost(t, cfg.BiasWh)/100)
}

func renderDetailed(w io.Writer, t plan.Timeline, cfg plan.Config) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Time\tPrice\tLoad(W)\tSolar(W)\tGrid(W)\tBatt%\tBatt(W)\tCost\tParams")
	for i := range t {
		s := t[i]
		actWh := s.Import(cfg.BiasWh)
		actW := actWh * 4
		battNetW := actW + s.SolarWh*4 - s.ConsumptionWh*4
		cost := actWh / 1000 * s.Price
		soc := int(s.BatteryWh / cfg.BatteryCapacityWh * 100)
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%d\t%d\t%d\t%+d\t%.2f\t%s\n",
			s.Time, s.Price, int(s.ConsumptionWh*4), int(s.SolarWh*4), int(actW),
			soc, int(battNetW), cost, params(s, cfg.BiasWh))
	}
	_ = tw.Flush()
}

func renderBlocks(w io.Writer, t plan.Timeline, cfg plan.Config) {
	var blocks []block
	var curr *block
	for i := range t {
		s := t[i]
		actWh := s.Import(cfg.BiasWh)
		cost := actWh / 1000 * s.Price
		battNetW := actWh*4 + s.SolarWh*4 - s.ConsumptionWh*4
		change := battNetW / 4
		socEnd := int(s.BatteryWh / cfg.BatteryCapacityWh * 100)
		socStart := int((s.BatteryWh - change) / cfg.BatteryCapacityWh * 100)
		p := params(s, cfg.BiasWh)

		if curr != nil && curr.params == p {
			curr.endTime = quarterEnd(s.Time)
			curr.socEnd = socEnd
			curr.cost += cost
			curr.priceSum += s.Price
			curr.count++
			continue
		}
		if curr != nil {
			blocks = append(blocks, *curr)
		}
		curr = &block{
			startTime: s.Time,
			endTime:   quarterEnd(s.Time),
			params:    p,
			socStart:  socStart,
			socEnd:    socEnd,
			cost:      cost,
			priceSum:  s.Price,
			count:     1,
		}
	}
	if curr != nil {
		blocks = append(blocks, *curr)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Time\tAvg price\tParams\tBatt SOC\tCost\tCost/h")
	for _, b := range blocks {
		avg := b.priceSum / float64(b.count)
		hours := float64(b.count) / 4
		costPerHour := 0.0
		if hours > 0 {
			costPerHour = b.cost / hours
		}
		fmt.Fprintf(tw, "%s - %s\t%.1f\t%s\t%d%% -> %d%%\t%.2f oere\t%.0f oere/h\n",
			b.startTime, b.endTime, avg, b.params, b.socStart, b.socEnd, b.cost, costPerHour)
	}
	_ = tw.Flush()
}

func renderHourlyCheck(w io.Writer, t plan.Timeline, cfg plan.Config) {
	imports := make(map[string]float64)
	hourPrices := make(map[string][]float64)
	for i := range t {
		if imp := t[i].Import(cfg.BiasWh); imp > 0 {
			imports[t[i].Hour] += imp
		}
		hourPrices[t[i].Hour] = append(hourPrices[t[i].Hour], t[i].Price)
	}
	hours := make([]string, 0, len(imports))
	for h := range imports {
		hours = append(hours, h)
	}
	sort.Strings(hours)

	fmt.Fprintf(w, "Hourly import check (limit %.0f Wh):\n", cfg.PreviousPeakWh)
	for _, h := range hours {
		used := imports[h]
		avgHour := stat.Mean(hourPrices[h], nil)
		status := "OK"
		if used > cfg.PreviousPeakWh+5 {
			status = fmt.Sprintf("EXCEEDED (+%.0f)", used-cfg.PreviousPeakWh)
		}
		fmt.Fprintf(w, "  hour %s: %5.0f Wh  %-16s avg %.1f oere\n", h, used, status, avgHour)
	}
}

// params renders the control instruction for a slot the way the battery unit
// expects it.
func params(s plan.Slot, biasWh float64) string {
	sp := publish.Setpoints(plan.Timeline{s}, biasWh)[0]
	if sp.ImportLimitation {
		return fmt.Sprintf(`{"setpoint":%d, "import_limitation":1}`, sp.SetpointW)
	}
	return fmt.Sprintf(`{"setpoint":%d}`, sp.SetpointW)
}

// quarterEnd returns the end label of the quarter starting at ts.
func quarterEnd(ts string) string {
	var h, m int
	fmt.Sscanf(ts, "%d:%d", &h, &m)
	m += 15
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
