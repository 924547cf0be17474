// Package route maps a distance travelled along a geographic path to a
// coordinate. Lengths are great-circle (haversine) lengths in kilometres.
package route

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var (
	// ErrNoRouteFound is returned when the router yields no candidate.
	ErrNoRouteFound = errors.New("no route found")
	// ErrEmptyGeometry is returned when a route has no point at all.
	ErrEmptyGeometry = errors.New("route geometry is empty")
)

// Route is an immutable path with a precomputed length.
type Route struct {
	geometry orb.LineString
	length   float64 // km
}

// New builds a Route from a path. The geometry is copied.
func New(geometry orb.LineString) (*Route, error) {
	if len(geometry) == 0 {
		return nil, ErrEmptyGeometry
	}
	ls := geometry.Clone()
	return &Route{
		geometry: ls,
		length:   geo.LengthHaversine(ls) / 1000,
	}, nil
}

// Create asks r for routes between origin and destination and keeps the
// first candidate.
func Create(ctx context.Context, r Router, origin, destination orb.Point) (*Route, error) {
	candidates, err := r.Routes(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w between %v and %v", ErrNoRouteFound, origin, destination)
	}
	return New(candidates[0].Geometry)
}

// Length returns the route length in kilometres.
func (r *Route) Length() float64 { return r.length }

// Geometry returns a copy of the path.
func (r *Route) Geometry() orb.LineString { return r.geometry.Clone() }

// Start returns the first point of the path.
func (r *Route) Start() orb.Point { return r.geometry[0] }

// End returns the last point of the path.
func (r *Route) End() orb.Point { return r.geometry[len(r.geometry)-1] }

// PositionAtDistance returns the point reached after d kilometres along the
// path. d is clamped to [0, Length()], so any overshoot yields End().
func (r *Route) PositionAtDistance(d float64) orb.Point {
	if d >= r.length || len(r.geometry) == 1 {
		return r.End()
	}
	if d <= 0 || math.IsNaN(d) {
		return r.Start()
	}
	p, _ := geo.PointAtDistanceAlongLine(r.geometry, d*1000)
	return p
}

// Bearing returns the initial great-circle bearing from one point to
// another, in degrees within [0, 360), clockwise from north.
func Bearing(from, to orb.Point) float64 {
	b := math.Mod(geo.Bearing(from, to), 360)
	if b < 0 {
		b += 360
	}
	return b
}
