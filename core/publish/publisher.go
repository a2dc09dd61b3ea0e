// Package publish defines how a finished dispatch plan leaves the planner.
package publish

import (
	"context"

	"github.com/homevolt/dayahead/core/plan"
)

// Setpoint is one quarter-hour control instruction for the battery unit.
type Setpoint struct {
	Time string `json:"time"`
	// SetpointW is the grid power target in W, relative to the bias.
	SetpointW int `json:"setpoint"`
	// ImportLimitation asks the unit to cap grid import while discharging.
	ImportLimitation bool `json:"import_limitation,omitempty"`
}

// PlanMessage is the published form of a completed plan.
type PlanMessage struct {
	RunID     string     `json:"run_id"`
	Date      string     `json:"date"`
	CeilingWh float64    `json:"ceiling_wh"`
	Setpoints []Setpoint `json:"setpoints"`
}

// Publisher pushes a finished dispatch plan to an external consumer.
type Publisher interface {
	PublishPlan(ctx context.Context, msg PlanMessage) error
}

// Setpoints converts a planned timeline into per-slot control instructions.
// A slot whose battery is not charging carries the import limitation flag so
// the unit holds the grid at the setpoint instead of topping up.
func Setpoints(t plan.Timeline, biasWh float64) []Setpoint {
	out := make([]Setpoint, len(t))
	for i := range t {
		gridW := t[i].GridWh * 4
		actW := t[i].Import(biasWh) * 4
		battNetW := actW + t[i].SolarWh*4 - t[i].ConsumptionWh*4
		out[i] = Setpoint{
			Time:             t[i].Time,
			SetpointW:        int(gridW),
			ImportLimitation: battNetW <= 0.1,
		}
	}
	return out
}
