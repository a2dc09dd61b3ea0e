package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/homevolt/dayahead/core/metrics"
	"github.com/homevolt/dayahead/core/plan"
	"github.com/homevolt/dayahead/core/schedule"
	"github.com/homevolt/dayahead/infra/mqtt"
	"github.com/homevolt/dayahead/pricing"
	"github.com/homevolt/dayahead/report"
)

// Config is the full planner configuration.
type Config struct {
	Plan     plan.Config     `json:"plan"`
	Pricing  pricing.Config  `json:"pricing"`
	Schedule schedule.Config `json:"schedule"`
	Publish  mqtt.Config     `json:"publish"`
	Metrics  metrics.Config  `json:"metrics"`
	Report   report.Options  `json:"report"`

	// TargetDate selects the day to plan ("2006-01-02"); empty means today.
	TargetDate string `json:"target_date"`
	// StartFrom starts the window mid-day at the given "HH:MM", rounded down
	// to a quarter. Used when re-planning during the day.
	StartFrom string `json:"start_from"`
	// CurrentChargeKWh overrides the assumed starting charge. Nil means a
	// full battery.
	CurrentChargeKWh *float64 `json:"current_charge_kwh"`
}

// Load reads the configuration file (yaml or json by extension), applies
// HV_-prefixed environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("HV_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hv_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Plan.SetDefaults()
	cfg.Pricing.SetDefaults()
	cfg.Schedule.SetDefaults()
	cfg.Publish.SetDefaults()
	if err := cfg.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("plan config: %w", err)
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("schedule config: %w", err)
	}
	if err := cfg.Publish.Validate(); err != nil {
		return nil, fmt.Errorf("publish config: %w", err)
	}
	return &cfg, nil
}
