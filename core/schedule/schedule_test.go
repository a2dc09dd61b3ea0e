package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepValue(t *testing.T) {
	sched := map[string]float64{"06:00": 400, "12:00": 800}

	assert.Equal(t, 0.0, stepValue(sched, "05:45"), "before first entry")
	assert.Equal(t, 400.0, stepValue(sched, "06:00"), "exactly at entry")
	assert.Equal(t, 400.0, stepValue(sched, "11:45"), "holds until next entry")
	assert.Equal(t, 800.0, stepValue(sched, "23:45"), "last entry holds to end of day")
}

func TestRoundDownToQuarter(t *testing.T) {
	got, err := RoundDownToQuarter("13:37")
	require.NoError(t, err)
	assert.Equal(t, "13:30", got)

	got, err = RoundDownToQuarter("00:14")
	require.NoError(t, err)
	assert.Equal(t, "00:00", got)

	_, err = RoundDownToQuarter("half past")
	assert.Error(t, err)
}

func TestBuildTimeline(t *testing.T) {
	cfg := Config{
		ConsumptionW: map[string]float64{"00:00": 400, "01:00": 800},
		SolarW:       map[string]float64{"00:30": 200},
		StartTime:    "00:00",
		EndTime:      "02:00",
	}
	prices := map[string]float64{"00:00": 50, "00:15": 60}

	tl := BuildTimeline(cfg, prices)
	require.Len(t, tl, 8)

	assert.Equal(t, "00:00", tl[0].Time)
	assert.Equal(t, "00", tl[0].Hour)
	assert.Equal(t, 50.0, tl[0].Price)
	assert.Equal(t, 100.0, tl[0].ConsumptionWh, "400 W over a quarter")
	assert.Equal(t, 100.0, tl[0].BaseNetLoadWh)

	assert.Equal(t, "00:30", tl[2].Time)
	assert.Equal(t, 50.0, tl[2].SolarWh, "200 W solar over a quarter")
	assert.Equal(t, 50.0, tl[2].BaseNetLoadWh, "consumption minus solar")
	assert.Equal(t, 0.0, tl[2].Price, "missing price resolves to zero")

	assert.Equal(t, "01:00", tl[4].Time)
	assert.Equal(t, 200.0, tl[4].ConsumptionWh, "step to 800 W")
	assert.Equal(t, 7, tl[7].Index)
}

func TestBuildTimeline_FudgeFactor(t *testing.T) {
	cfg := Config{
		ConsumptionW: map[string]float64{"00:00": 400},
		FudgeFactor:  1.1,
		StartTime:    "00:00",
		EndTime:      "00:30",
	}
	tl := BuildTimeline(cfg, nil)
	require.Len(t, tl, 2)
	assert.InDelta(t, 110.0, tl[0].ConsumptionWh, 1e-9, "fudge scales consumption only")
}

func TestBasePrice(t *testing.T) {
	cfg := Config{
		NightWindowStart:    "00:00",
		NightWindowEnd:      "06:00",
		ChargeDurationHours: 1, // four cheapest quarters
	}
	prices := map[string]float64{
		"00:00": 10, "00:15": 20, "00:30": 30, "00:45": 40,
		"01:00": 50, "01:15": 60,
		"12:00": 5, // outside the night window, ignored
	}

	got := BasePrice(cfg, prices, 10)
	assert.InDelta(t, 35.0, got, 1e-9, "mean of 10,20,30,40 plus 10 fees")
}

func TestBasePrice_FallsBackOnSparseWindow(t *testing.T) {
	cfg := Config{
		NightWindowStart:    "00:00",
		NightWindowEnd:      "06:00",
		ChargeDurationHours: 3,
		DefaultBasePrice:    80,
	}
	prices := map[string]float64{"00:00": 10, "00:15": 20}

	assert.Equal(t, 80.0, BasePrice(cfg, prices, 10), "too few night quarters")
	assert.Equal(t, 80.0, BasePrice(cfg, nil, 10), "no prices at all")
}

func TestSanityCheck(t *testing.T) {
	cfg := Config{
		ConsumptionW:           map[string]float64{"00:00": 1000},
		StartTime:              "00:00",
		EndTime:                "02:00",
		ExpectedConsumptionKWh: 1,
	}

	totalKWh, deviationPct := SanityCheck(cfg)
	assert.InDelta(t, 2.0, totalKWh, 1e-9, "1000 W over 2 h")
	assert.InDelta(t, 100.0, deviationPct, 1e-9)

	cfg.ExpectedConsumptionKWh = 0
	_, deviationPct = SanityCheck(cfg)
	assert.Equal(t, 0.0, deviationPct, "check disabled without expectation")
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.StartTime = "23:00"
	bad.EndTime = "01:00"
	assert.Error(t, bad.Validate(), "start after end")

	bad = cfg
	bad.NightWindowEnd = "6am"
	assert.Error(t, bad.Validate())
}

func TestSanityCheck_Fudge(t *testing.T) {
	cfg := Config{
		ConsumptionW: map[string]float64{"00:00": 1000},
		FudgeFactor:  1.2,
		StartTime:    "00:00",
		EndTime:      "01:00",
	}
	totalKWh, _ := SanityCheck(cfg)
	if math.Abs(totalKWh-1.2) > 1e-9 {
		t.Errorf("totalKWh = %.3f, want 1.2", totalKWh)
	}
}
