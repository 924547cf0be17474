package route

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Candidate is one route proposed by a routing service.
type Candidate struct {
	Geometry orb.LineString
	// Distance and Duration are the service's own estimates, in metres and
	// seconds. They are informative only.
	Distance float64
	Duration float64
}

// Router resolves an ordered list of waypoints into candidate routes, best
// first. An empty result with a nil error means no route exists.
type Router interface {
	Routes(ctx context.Context, waypoints ...orb.Point) ([]Candidate, error)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(ctx context.Context, waypoints ...orb.Point) ([]Candidate, error)

// Routes implements Router.
func (f RouterFunc) Routes(ctx context.Context, waypoints ...orb.Point) ([]Candidate, error) {
	return f(ctx, waypoints...)
}

// DirectRouter links waypoints with great-circle arcs. It needs no network
// access and is used for offline runs and tests.
type DirectRouter struct {
	// Segments is the number of straight pieces per leg; values below 1 mean 1.
	Segments int
}

// Routes implements Router.
func (d DirectRouter) Routes(ctx context.Context, waypoints ...orb.Point) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(waypoints) < 2 {
		return nil, errors.New("at least two waypoints are required")
	}
	n := d.Segments
	if n < 1 {
		n = 1
	}
	ls := orb.LineString{waypoints[0]}
	for i := 1; i < len(waypoints); i++ {
		from, to := waypoints[i-1], waypoints[i]
		dist := geo.DistanceHaversine(from, to)
		bearing := geo.Bearing(from, to)
		for s := 1; s < n; s++ {
			ls = append(ls, geo.PointAtBearingAndDistance(from, bearing, dist*float64(s)/float64(n)))
		}
		ls = append(ls, to)
	}
	return []Candidate{{Geometry: ls, Distance: geo.LengthHaversine(ls)}}, nil
}
