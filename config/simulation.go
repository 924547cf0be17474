package config

import (
	"fmt"

	"github.com/kilianp07/roadsim/core/clock"
	"github.com/kilianp07/roadsim/core/model"
)

// SimulationConfig drives the clock and the fleet seeding.
type SimulationConfig struct {
	FrequencyHz float64 `json:"frequency_hz"`
	FleetSize   int     `json:"fleet_size"`
	// Seed makes colour, model and address draws reproducible. Zero picks a
	// time based seed.
	Seed        int64 `json:"seed"`
	AutoRedrive bool  `json:"auto_redrive"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.FrequencyHz == 0 {
		c.FrequencyHz = 1
	}
	if c.FleetSize == 0 {
		c.FleetSize = 10
	}
}

func (c SimulationConfig) Validate() error {
	if _, err := clock.PeriodFor(c.FrequencyHz); err != nil {
		return fmt.Errorf("simulation: frequency_hz: %w", err)
	}
	if c.FleetSize < 0 {
		return fmt.Errorf("simulation: fleet_size must not be negative")
	}
	return nil
}

// SeedConfig points at the data used to populate the simulation.
type SeedConfig struct {
	// AddressBook is a JSON list of addresses with resolved locations.
	AddressBook string       `json:"address_book"`
	Models      []model.Spec `json:"models"`
}

// DefaultModels is the catalog used when none is configured.
func DefaultModels() []model.Spec {
	return []model.Spec{
		{Name: "Clio", Year: 2008, Brand: "Renault", Category: "car", MassKg: 1100,
			LengthM: 4.0, WidthM: 1.7, HeightM: 1.5, MaxBrakeForceN: 8000, MaxEngineForceN: 3000},
		{Name: "Axor", Year: 1990, Brand: "Mercedes", Category: "truck", MassKg: 12000,
			LengthM: 10.0, WidthM: 2.5, HeightM: 3.5, MaxBrakeForceN: 60000, MaxEngineForceN: 25000},
	}
}

func (c *SeedConfig) SetDefaults() {
	if c.AddressBook == "" {
		c.AddressBook = "data/addresses.json"
	}
	if len(c.Models) == 0 {
		c.Models = DefaultModels()
	}
}

func (c SeedConfig) Validate() error {
	for _, s := range c.Models {
		if _, err := model.New(s); err != nil {
			return fmt.Errorf("seed: model %q: %w", s.Name, err)
		}
	}
	return nil
}
