// Package vehicle implements a simulated vehicle driving along a route.
//
// A vehicle is idle until DriveTo gives it a route. Each UpdatePosition call
// then integrates the longitudinal dynamics over the wall-clock time elapsed
// since the previous update and moves the vehicle along its route. Once the
// travelled distance passes the route length the vehicle snaps to its
// destination and becomes idle again.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/route"
)

var (
	// ErrInvalidPedal is returned for a pedal value outside [-1, 1].
	ErrInvalidPedal = errors.New("pedal must be within [-1, 1]")
	// ErrNoRouter is returned by DriveTo when the vehicle has no router.
	ErrNoRouter = errors.New("vehicle has no router")
)

// Place is anything with a resolved coordinate, typically an address.
type Place interface {
	Position() (orb.Point, error)
}

// Point adapts a bare coordinate to Place.
type Point orb.Point

// Position implements Place.
func (p Point) Position() (orb.Point, error) { return orb.Point(p), nil }

// Option configures a Vehicle.
type Option func(*Vehicle)

// WithRouter sets the router used by DriveTo.
func WithRouter(r route.Router) Option { return func(v *Vehicle) { v.router = r } }

// WithParams overrides the dynamics constants.
func WithParams(p Params) Option { return func(v *Vehicle) { v.params = p } }

// WithClock sets the time source. It defaults to time.Now.
func WithClock(now func() time.Time) Option { return func(v *Vehicle) { v.now = now } }

// WithNotifier sets the receiver of route-acquired and arrived events.
func WithNotifier(n Notifier) Option { return func(v *Vehicle) { v.notifier = n } }

// Vehicle is a simulated vehicle. It is safe for concurrent use.
type Vehicle struct {
	id    string
	color string
	model *model.VehicleModel

	router   route.Router
	params   Params
	now      func() time.Time
	notifier Notifier

	mu          sync.Mutex
	position    orb.Point
	bearing     float64
	speed       float64
	pedal       float64
	route       *route.Route
	destination orb.Point
	distance    float64 // km along route
	lastUpdate  time.Time
}

// New creates an idle vehicle at position.
func New(id, color string, m *model.VehicleModel, position orb.Point, opts ...Option) (*Vehicle, error) {
	if id == "" {
		return nil, errors.New("vehicle id is required")
	}
	if m == nil {
		return nil, errors.New("vehicle model is required")
	}
	v := &Vehicle{
		id:       id,
		color:    color,
		model:    m,
		position: position,
		params:   DefaultParams(),
		now:      time.Now,
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.notifier == nil {
		v.notifier = nopNotifier{}
	}
	v.lastUpdate = v.now()
	return v, nil
}

func (v *Vehicle) ID() string                 { return v.id }
func (v *Vehicle) Color() string              { return v.color }
func (v *Vehicle) Model() *model.VehicleModel { return v.model }

// DriveTo computes a route from the current position to dest and starts
// driving. On failure the vehicle keeps its previous state.
func (v *Vehicle) DriveTo(ctx context.Context, dest Place) error {
	if v.router == nil {
		return ErrNoRouter
	}
	target, err := dest.Position()
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	origin := v.Position()

	r, err := route.Create(ctx, v.router, origin, target)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.route = r
	v.destination = target
	v.distance = 0
	v.pedal = v.params.DefaultThrottle
	v.speed = v.params.SeedSpeed
	v.lastUpdate = v.now()
	ev := v.eventLocked(EventRouteAcquired)
	v.mu.Unlock()

	v.notifier.Notify(ev)
	return nil
}

// UpdatePosition advances the vehicle by the time elapsed since its last
// update. It does nothing for an idle vehicle.
func (v *Vehicle) UpdatePosition() error {
	v.mu.Lock()
	if v.route == nil {
		v.mu.Unlock()
		return nil
	}
	now := v.now()
	dt := now.Sub(v.lastUpdate).Seconds()
	speed, travelled, err := v.params.Step(v.model, v.pedal, v.speed, dt)
	if err != nil {
		v.mu.Unlock()
		return fmt.Errorf("vehicle %s: %w", v.id, err)
	}
	if dt > 0 {
		v.lastUpdate = now
	}
	v.speed = speed
	v.distance += travelled

	if v.distance <= v.route.Length() {
		prev := v.position
		v.position = v.route.PositionAtDistance(v.distance)
		if !prev.Equal(v.position) {
			v.bearing = route.Bearing(prev, v.position)
		}
		v.mu.Unlock()
		return nil
	}

	ev := v.eventLocked(EventArrived)
	ev.Position = v.destination
	v.position = v.destination
	v.distance = 0
	v.speed = 0
	v.route = nil
	v.mu.Unlock()

	v.notifier.Notify(ev)
	return nil
}

func (v *Vehicle) eventLocked(kind EventKind) Event {
	ev := Event{
		Kind:        kind,
		VehicleID:   v.id,
		Color:       v.color,
		Position:    v.position,
		Destination: v.destination,
		Time:        v.now(),
	}
	if v.route != nil {
		ev.RouteLength = v.route.Length()
	}
	return ev
}

func checkPedal(p float64) error {
	if math.IsNaN(p) || p < -1 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidPedal, p)
	}
	return nil
}

// SetPedal sets the control input used by the next update. Positive values
// throttle, negative values brake.
func (v *Vehicle) SetPedal(p float64) error {
	if err := checkPedal(p); err != nil {
		return err
	}
	v.mu.Lock()
	v.pedal = p
	v.mu.Unlock()
	return nil
}

func (v *Vehicle) Position() orb.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.position
}

// Bearing returns the heading in degrees clockwise from north.
func (v *Vehicle) Bearing() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bearing
}

func (v *Vehicle) Speed() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.speed
}

func (v *Vehicle) Pedal() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pedal
}

// Distance returns the kilometres travelled on the current route.
func (v *Vehicle) Distance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.distance
}

// Route returns the current route, nil when idle.
func (v *Vehicle) Route() *route.Route {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.route
}

// Destination returns the current destination and whether the vehicle is
// driving towards it.
func (v *Vehicle) Destination() (orb.Point, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destination, v.route != nil
}

func (v *Vehicle) Driving() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.route != nil
}

// View is the renderable state of a vehicle.
type View struct {
	ID         string           `json:"id"`
	Color      string           `json:"color"`
	Position   orb.Point        `json:"position"`
	Bearing    float64          `json:"bearing"`
	Speed      float64          `json:"speed"`
	Driving    bool             `json:"driving"`
	Dimensions model.Dimensions `json:"dimensions"`
}

// View returns a consistent copy of the renderable state.
func (v *Vehicle) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return View{
		ID:         v.id,
		Color:      v.color,
		Position:   v.position,
		Bearing:    v.bearing,
		Speed:      v.speed,
		Driving:    v.route != nil,
		Dimensions: v.model.Dimensions(),
	}
}
