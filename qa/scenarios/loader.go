package scenarios

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/vehicle"
)

type ModelDef struct {
	Name           string  `yaml:"name"`
	MassKg         float64 `yaml:"mass_kg"`
	LengthM        float64 `yaml:"length_m"`
	WidthM         float64 `yaml:"width_m"`
	HeightM        float64 `yaml:"height_m"`
	MaxBrakeForce  float64 `yaml:"max_brake_force_n"`
	MaxEngineForce float64 `yaml:"max_engine_force_n"`
}

func (m ModelDef) ToModel() (*model.VehicleModel, error) {
	return model.New(model.Spec{
		Name:            m.Name,
		MassKg:          m.MassKg,
		LengthM:         m.LengthM,
		WidthM:          m.WidthM,
		HeightM:         m.HeightM,
		MaxBrakeForceN:  m.MaxBrakeForce,
		MaxEngineForceN: m.MaxEngineForce,
	})
}

// PedalChange sets the pedal before the given tick.
type PedalChange struct {
	Tick  int     `yaml:"tick"`
	Value float64 `yaml:"value"`
}

type Expected struct {
	Arrived     bool `yaml:"arrived"`
	ArrivalTick int  `yaml:"arrival_tick,omitempty"`
}

type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Model       ModelDef      `yaml:"model"`
	From        [2]float64    `yaml:"from"`
	To          [2]float64    `yaml:"to"`
	Segments    int           `yaml:"segments,omitempty"`
	SeedSpeed   *float64      `yaml:"seed_speed,omitempty"`
	Pedal       []PedalChange `yaml:"pedal,omitempty"`
	StepSeconds float64       `yaml:"step_seconds"`
	MaxTicks    int           `yaml:"max_ticks"`
	Expected    Expected      `yaml:"expected"`
}

func (s *Scenario) origin() orb.Point      { return orb.Point(s.From) }
func (s *Scenario) destination() orb.Point { return orb.Point(s.To) }

// Params returns the dynamics constants for the scenario.
func (s *Scenario) Params() vehicle.Params {
	p := vehicle.DefaultParams()
	if s.SeedSpeed != nil {
		p.SeedSpeed = *s.SeedSpeed
	}
	return p
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.StepSeconds <= 0 || sc.MaxTicks <= 0 {
		return nil, fmt.Errorf("%s: step_seconds and max_ticks must be positive", path)
	}
	return &sc, nil
}
