package model

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is returned when a model has a negative physical parameter.
var ErrInvalidModel = errors.New("invalid vehicle model")

// Spec carries the raw fields of a vehicle model. It is the shape used by
// configuration files and catalog seeding.
type Spec struct {
	Name            string  `json:"name"`
	Year            int     `json:"year"`
	Brand           string  `json:"brand"`
	Category        string  `json:"category"`
	MassKg          float64 `json:"mass_kg"`
	LengthM         float64 `json:"length_m"`
	WidthM          float64 `json:"width_m"`
	HeightM         float64 `json:"height_m"`
	MaxBrakeForceN  float64 `json:"max_brake_force_n"`
	MaxEngineForceN float64 `json:"max_engine_force_n"`
}

// VehicleModel holds the immutable physical and performance parameters of a
// vehicle class. Many vehicles share one *VehicleModel. Two models with the
// same values are still distinct.
type VehicleModel struct {
	name     string
	year     int
	brand    string
	category string

	mass   float64 // kg
	length float64 // m
	width  float64 // m
	height float64 // m

	maxBrakeForce  float64 // N
	maxEngineForce float64 // N
}

// New validates s and builds a VehicleModel. Any negative numeric field
// yields ErrInvalidModel and no model.
func New(s Spec) (*VehicleModel, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"mass", s.MassKg},
		{"length", s.LengthM},
		{"width", s.WidthM},
		{"height", s.HeightM},
		{"max brake force", s.MaxBrakeForceN},
		{"max engine force", s.MaxEngineForceN},
	}
	for _, f := range fields {
		if f.value < 0 {
			return nil, fmt.Errorf("%w: %s is negative (%g)", ErrInvalidModel, f.name, f.value)
		}
	}
	if s.Year < 0 {
		return nil, fmt.Errorf("%w: year is negative (%d)", ErrInvalidModel, s.Year)
	}
	return &VehicleModel{
		name:           s.Name,
		year:           s.Year,
		brand:          s.Brand,
		category:       s.Category,
		mass:           s.MassKg,
		length:         s.LengthM,
		width:          s.WidthM,
		height:         s.HeightM,
		maxBrakeForce:  s.MaxBrakeForceN,
		maxEngineForce: s.MaxEngineForceN,
	}, nil
}

func (m *VehicleModel) Name() string            { return m.name }
func (m *VehicleModel) Year() int               { return m.year }
func (m *VehicleModel) Brand() string           { return m.brand }
func (m *VehicleModel) Category() string        { return m.category }
func (m *VehicleModel) Mass() float64           { return m.mass }
func (m *VehicleModel) Length() float64         { return m.length }
func (m *VehicleModel) Width() float64          { return m.width }
func (m *VehicleModel) Height() float64         { return m.height }
func (m *VehicleModel) MaxBrakeForce() float64  { return m.maxBrakeForce }
func (m *VehicleModel) MaxEngineForce() float64 { return m.maxEngineForce }

// FrontalArea returns width times height, in square metres.
func (m *VehicleModel) FrontalArea() float64 { return m.width * m.height }

// Dimensions returns length, width and height in metres.
func (m *VehicleModel) Dimensions() Dimensions {
	return Dimensions{Length: m.length, Width: m.width, Height: m.height}
}

// Spec returns the raw fields of the model.
func (m *VehicleModel) Spec() Spec {
	return Spec{
		Name:            m.name,
		Year:            m.year,
		Brand:           m.brand,
		Category:        m.category,
		MassKg:          m.mass,
		LengthM:         m.length,
		WidthM:          m.width,
		HeightM:         m.height,
		MaxBrakeForceN:  m.maxBrakeForce,
		MaxEngineForceN: m.maxEngineForce,
	}
}

func (m *VehicleModel) String() string {
	return fmt.Sprintf("%s (%d), %s: %s", m.name, m.year, m.brand, m.category)
}

// Dimensions is the bounding box of a vehicle, in metres.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
