package simulation

import (
	"errors"

	"github.com/kilianp07/roadsim/core/fleet"
)

// Renderer displays the simulation. Calls happen from the simulation loop
// and must not block for long.
type Renderer interface {
	SetVehicles(fleet.Snapshot) error
	SetRoutes([]fleet.RouteView) error
}

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) SetVehicles(fleet.Snapshot) error  { return nil }
func (NopRenderer) SetRoutes([]fleet.RouteView) error { return nil }

// MultiRenderer forwards to several renderers.
type MultiRenderer []Renderer

// SetVehicles forwards the snapshot to every renderer and joins their errors.
func (m MultiRenderer) SetVehicles(s fleet.Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.SetVehicles(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetRoutes forwards the routes to every renderer and joins their errors.
func (m MultiRenderer) SetRoutes(routes []fleet.RouteView) error {
	var errs []error
	for _, r := range m {
		if err := r.SetRoutes(routes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
