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

	"github.com/kilianp07/roadsim/core/metrics"
	"github.com/kilianp07/roadsim/core/vehicle"
	"github.com/kilianp07/roadsim/infra/nominatim"
)

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Dynamics   vehicle.Params   `json:"dynamics"`
	Routing    RoutingConfig    `json:"routing"`
	Geocoding  nominatim.Config `json:"geocoding"`
	Seed       SeedConfig       `json:"seed"`
	Renderer   RendererConfig   `json:"renderer"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
	TripLog    TripLogConfig    `json:"trip_log"`
	API        APIConfig        `json:"api"`
}

// Default returns a configuration that runs offline with the bundled seed data.
func Default() Config {
	cfg := Config{Dynamics: vehicle.DefaultParams()}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Routing.SetDefaults()
	if c.Geocoding.BaseURL == "" {
		c.Geocoding.BaseURL = "https://nominatim.openstreetmap.org"
	}
	c.Seed.SetDefaults()
	c.Renderer.SetDefaults()
	c.Logging.SetDefaults()
	c.TripLog.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []func() error{
		c.Simulation.Validate,
		c.Dynamics.Validate,
		c.Routing.Validate,
		c.Seed.Validate,
		c.Renderer.Validate,
		c.Logging.Validate,
		c.TripLog.Validate,
		c.API.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads path (yaml or json), applies K_SECTION__KEY environment
// overrides, fills defaults and validates the result.
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
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Dynamics: vehicle.DefaultParams()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
