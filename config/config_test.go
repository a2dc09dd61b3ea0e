package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
plan:
  battery_capacity_wh: 10000
  max_discharge_wh: 1250
  low_charge_threshold_wh: 1500
  low_charge_max_discharge_wh: 500
  min_reserve_wh: 1000
  bias_wh: 25
  previous_peak_wh: 4000
  enable_arbitrage: true
  min_sell_spread: 10
  cycle_cost: 8
  additional_fees: 76
pricing:
  area: SE4
schedule:
  consumption_w:
    "00:00": 400
    "07:00": 900
  fudge_factor: 1.1
  expected_consumption_kwh: 12
publish:
  enabled: false
  topic: custom/plan
metrics:
  prometheus_enabled: true
  prometheus_port: "9109"
report:
  detailed: true
target_date: "2026-08-30"
current_charge_kwh: 7.5
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"battery capacity", cfg.Plan.BatteryCapacityWh, 10000.0},
		{"max discharge", cfg.Plan.MaxDischargeWh, 1250.0},
		{"bias", cfg.Plan.BiasWh, 25.0},
		{"arbitrage", cfg.Plan.EnableArbitrage, true},
		{"fees", cfg.Plan.AdditionalFees, 76.0},
		{"swap increment default", cfg.Plan.SwapIncrementWh, 50.0},
		{"area", cfg.Pricing.Area, "SE4"},
		{"price url default", cfg.Pricing.BaseURL, "https://www.elprisetjustnu.se/api/v1/prices"},
		{"fudge", cfg.Schedule.FudgeFactor, 1.1},
		{"consumption step", cfg.Schedule.ConsumptionW["07:00"], 900.0},
		{"window default", cfg.Schedule.EndTime, "23:45"},
		{"topic", cfg.Publish.Topic, "custom/plan"},
		{"client id default", cfg.Publish.ClientID, "dayahead-planner"},
		{"prom port", cfg.Metrics.PrometheusPort, "9109"},
		{"detailed report", cfg.Report.Detailed, true},
		{"target date", cfg.TargetDate, "2026-08-30"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	require.NotNil(t, cfg.CurrentChargeKWh)
	assert.Equal(t, 7.5, *cfg.CurrentChargeKWh)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HV_PLAN__BIAS_WH", "50")
	t.Setenv("HV_PRICING__AREA", "SE1")

	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Plan.BiasWh)
	assert.Equal(t, "SE1", cfg.Pricing.Area)
}

func TestLoad_JSON(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json", `{
		"plan": {
			"battery_capacity_wh": 5000,
			"max_discharge_wh": 1000,
			"previous_peak_wh": 3000
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Plan.BatteryCapacityWh)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", "x = 1"))
	assert.Error(t, err, "unsupported extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	// Valid yaml but failing plan validation.
	_, err = Load(writeConfig(t, "config.yaml", `
plan:
  battery_capacity_wh: 0
`))
	assert.Error(t, err)
}
