package plan

import "fmt"

// Config holds the battery, grid and tariff constants for one solver run. It
// is read-only for the whole run; every phase receives the same value.
type Config struct {
	// BatteryCapacityWh is the usable battery capacity.
	BatteryCapacityWh float64 `json:"battery_capacity_wh"`
	// MaxDischargeWh caps the battery output per quarter-hour slot.
	MaxDischargeWh float64 `json:"max_discharge_wh"`
	// LowChargeThresholdWh is the charge level under which the tighter
	// low-charge discharge limit applies.
	LowChargeThresholdWh float64 `json:"low_charge_threshold_wh"`
	// LowChargeMaxDischargeWh caps the output per slot while the battery is
	// below LowChargeThresholdWh at the start of the slot.
	LowChargeMaxDischargeWh float64 `json:"low_charge_max_discharge_wh"`
	// MinReserveWh is the charge floor the plan must never dip under.
	MinReserveWh float64 `json:"min_reserve_wh"`
	// BiasWh is the grid setpoint bias per quarter. Slot grid decisions are
	// stored as offsets from it.
	BiasWh float64 `json:"bias_wh"`
	// PreviousPeakWh is the contractual monthly peak import per clock hour.
	PreviousPeakWh float64 `json:"previous_peak_wh"`
	// ManualCeilingWh, when positive, replaces the searched import ceiling.
	// Expressed per clock hour like PreviousPeakWh.
	ManualCeilingWh float64 `json:"manual_ceiling_wh"`

	// EnableArbitrage turns on the swap and active-arbitrage passes.
	EnableArbitrage bool `json:"enable_arbitrage"`
	// MinSellSpread is the minimum net profit in oere/kWh required before an
	// active buy/sell cycle is accepted.
	MinSellSpread float64 `json:"min_sell_spread"`
	// CycleCost is the battery wear cost in oere/kWh charged against every
	// relocated increment.
	CycleCost float64 `json:"cycle_cost"`
	// AdditionalFees is the grid fee plus tax surcharge in oere/kWh applied on
	// top of the spot price for imported energy.
	AdditionalFees float64 `json:"additional_fees"`

	// SwapIncrementWh is the fixed energy step moved per accepted swap.
	SwapIncrementWh float64 `json:"swap_increment_wh"`
	// MaxSwapIterations bounds the swap and arbitrage local searches.
	MaxSwapIterations int `json:"max_swap_iterations"`
	// MaxSafetyPasses bounds the low-charge repair loop.
	MaxSafetyPasses int `json:"max_safety_passes"`
}

// SetDefaults applies the tuned solver constants. The increment size and the
// iteration caps interact with the feasibility checks; change them together,
// not in isolation.
func (c *Config) SetDefaults() {
	if c.SwapIncrementWh == 0 {
		c.SwapIncrementWh = 50
	}
	if c.MaxSwapIterations == 0 {
		c.MaxSwapIterations = 500
	}
	if c.MaxSafetyPasses == 0 {
		c.MaxSafetyPasses = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BatteryCapacityWh <= 0 {
		return fmt.Errorf("battery_capacity_wh must be positive")
	}
	if c.MaxDischargeWh <= 0 {
		return fmt.Errorf("max_discharge_wh must be positive")
	}
	if c.LowChargeMaxDischargeWh > c.MaxDischargeWh {
		return fmt.Errorf("low_charge_max_discharge_wh exceeds max_discharge_wh")
	}
	if c.MinReserveWh < 0 || c.MinReserveWh > c.BatteryCapacityWh {
		return fmt.Errorf("min_reserve_wh outside [0, capacity]")
	}
	if c.PreviousPeakWh <= 0 {
		return fmt.Errorf("previous_peak_wh must be positive")
	}
	return nil
}
