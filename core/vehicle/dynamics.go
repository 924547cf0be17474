package vehicle

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/roadsim/core/model"
)

// ErrDegenerateModel is returned when a model cannot be integrated, which
// happens for a zero mass.
var ErrDegenerateModel = errors.New("vehicle model has no mass")

// Params holds the constants of the longitudinal dynamics and the driving
// policy applied on DriveTo.
type Params struct {
	AirDensity         float64 `json:"air_density" yaml:"air_density"`                 // kg/m³
	DragCoefficient    float64 `json:"drag_coefficient" yaml:"drag_coefficient"`       // Cd
	RollingCoefficient float64 `json:"rolling_coefficient" yaml:"rolling_coefficient"` // Crr
	Gravity            float64 `json:"gravity" yaml:"gravity"`                         // m/s²
	// DistanceScale converts the speed·time product into route kilometres.
	DistanceScale   float64 `json:"distance_scale" yaml:"distance_scale"`
	DefaultThrottle float64 `json:"default_throttle" yaml:"default_throttle"`
	SeedSpeed       float64 `json:"seed_speed" yaml:"seed_speed"`
}

// DefaultParams returns the reference constants.
func DefaultParams() Params {
	return Params{
		AirDensity:         1.225,
		DragCoefficient:    0.3,
		RollingCoefficient: 0.015,
		Gravity:            9.8,
		DistanceScale:      0.01,
		DefaultThrottle:    0.2,
		SeedSpeed:          0.001,
	}
}

// Validate checks that the constants are usable.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"air_density":         p.AirDensity,
		"drag_coefficient":    p.DragCoefficient,
		"rolling_coefficient": p.RollingCoefficient,
		"gravity":             p.Gravity,
		"distance_scale":      p.DistanceScale,
		"seed_speed":          p.SeedSpeed,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}
	if p.DistanceScale == 0 {
		return errors.New("distance_scale must be positive")
	}
	if err := checkPedal(p.DefaultThrottle); err != nil {
		return fmt.Errorf("default_throttle: %w", err)
	}
	return nil
}

// Forces are the magnitudes acting on a vehicle for one step, in newtons.
type Forces struct {
	Engine  float64
	Brake   float64
	Drag    float64
	Rolling float64
}

// Net returns the resulting longitudinal force.
func (f Forces) Net() float64 { return f.Engine - f.Brake - f.Drag - f.Rolling }

// Forces computes the forces for a pedal position and a speed.
func (p Params) Forces(m *model.VehicleModel, pedal, speed float64) Forces {
	var f Forces
	switch {
	case pedal > 0:
		f.Engine = pedal * m.MaxEngineForce()
	case pedal < 0:
		f.Brake = -pedal * m.MaxBrakeForce()
	}
	f.Drag = 0.5 * p.AirDensity * p.DragCoefficient * m.FrontalArea() * speed * speed
	f.Rolling = p.RollingCoefficient * p.Gravity * m.Mass()
	return f
}

// Step integrates one explicit Euler step of dt seconds. It returns the new
// speed, never negative, and the distance covered in kilometres.
func (p Params) Step(m *model.VehicleModel, pedal, speed, dt float64) (float64, float64, error) {
	if m.Mass() <= 0 {
		return speed, 0, ErrDegenerateModel
	}
	if dt <= 0 {
		return speed, 0, nil
	}
	speed += dt * p.Forces(m, pedal, speed).Net() / m.Mass()
	if speed < 0 {
		speed = 0
	}
	return speed, speed * dt * p.DistanceScale, nil
}
