// Package fleet owns the set of simulated vehicles and advances them
// together on every tick.
package fleet

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/kilianp07/roadsim/core/logger"
	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/vehicle"
	"github.com/kilianp07/roadsim/internal/eventbus"
)

var (
	// ErrDuplicateID is returned by Create when the id is already used.
	ErrDuplicateID = errors.New("duplicate vehicle id")
	// ErrEmptyCollection is returned by Random on an empty collection.
	ErrEmptyCollection = errors.New("vehicle collection is empty")
)

// Snapshot is the renderable state of every vehicle after one update pass,
// in creation order.
type Snapshot struct {
	Time     time.Time
	Vehicles []vehicle.View
	// Failed counts vehicles whose update returned an error.
	Failed   int
	Duration time.Duration
}

// RouteView is the geometry a driving vehicle follows.
type RouteView struct {
	VehicleID string         `json:"vehicle_id"`
	Color     string         `json:"color"`
	Geometry  orb.LineString `json:"geometry"`
}

// Option configures a Collection.
type Option func(*Collection)

// WithRand sets the random source used by Random.
func WithRand(rng *rand.Rand) Option { return func(c *Collection) { c.rng = rng } }

// WithLogger sets the logger for per-vehicle failures.
func WithLogger(l logger.Logger) Option { return func(c *Collection) { c.log = logger.OrNop(l) } }

// WithVehicleOptions sets options applied to every vehicle built by Create.
func WithVehicleOptions(opts ...vehicle.Option) Option {
	return func(c *Collection) { c.vehicleOpts = append(c.vehicleOpts, opts...) }
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option { return func(c *Collection) { c.now = now } }

// Collection owns a set of vehicles keyed by id.
type Collection struct {
	mu       sync.RWMutex
	order    []*vehicle.Vehicle
	vehicles map[string]*vehicle.Vehicle

	rngMu       sync.Mutex
	rng         *rand.Rand
	log         logger.Logger
	now         func() time.Time
	vehicleOpts []vehicle.Option

	snapshots *eventbus.TypedBus[Snapshot]
	events    *eventbus.QueueBus[vehicle.Event]
}

// New creates an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{
		vehicles:  make(map[string]*vehicle.Vehicle),
		log:       logger.NopLogger{},
		now:       time.Now,
		snapshots: eventbus.NewTyped[Snapshot](),
		events:    eventbus.NewQueue[vehicle.Event](),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Create builds an idle vehicle at the position of place and adds it.
// An existing vehicle with the same id is left untouched.
func (c *Collection) Create(id, color string, m *model.VehicleModel, place vehicle.Place) (*vehicle.Vehicle, error) {
	c.mu.RLock()
	_, exists := c.vehicles[id]
	c.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	pos, err := place.Position()
	if err != nil {
		return nil, fmt.Errorf("vehicle %s position: %w", id, err)
	}
	opts := append(append([]vehicle.Option(nil), c.vehicleOpts...),
		vehicle.WithNotifier(vehicle.NotifierFunc(c.notify)))
	v, err := vehicle.New(id, color, m, pos, opts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.vehicles[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	c.vehicles[id] = v
	c.order = append(c.order, v)
	return v, nil
}

func (c *Collection) notify(e vehicle.Event) { c.events.Publish(e) }

// UpdateAll advances every vehicle, publishes the resulting snapshot and
// returns it. A failing vehicle is logged and does not stop the others.
func (c *Collection) UpdateAll() Snapshot {
	start := time.Now()
	vs := c.Vehicles()
	snap := Snapshot{Vehicles: make([]vehicle.View, 0, len(vs))}
	for _, v := range vs {
		if err := v.UpdatePosition(); err != nil {
			snap.Failed++
			c.log.Errorf("update vehicle %s: %v", v.ID(), err)
		}
		snap.Vehicles = append(snap.Vehicles, v.View())
	}
	snap.Time = c.now()
	snap.Duration = time.Since(start)
	c.snapshots.Publish(snap)
	return snap
}

// Random returns a uniformly chosen vehicle.
func (c *Collection) Random() (*vehicle.Vehicle, error) {
	vs := c.Vehicles()
	if len(vs) == 0 {
		return nil, ErrEmptyCollection
	}
	c.rngMu.Lock()
	i := c.rng.Intn(len(vs))
	c.rngMu.Unlock()
	return vs[i], nil
}

// Get returns the vehicle with the given id.
func (c *Collection) Get(id string) (*vehicle.Vehicle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vehicles[id]
	return v, ok
}

// Vehicles returns the vehicles in creation order.
func (c *Collection) Vehicles() []*vehicle.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*vehicle.Vehicle(nil), c.order...)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Routes returns the geometry of every driving vehicle.
func (c *Collection) Routes() []RouteView {
	var out []RouteView
	for _, v := range c.Vehicles() {
		r := v.Route()
		if r == nil {
			continue
		}
		out = append(out, RouteView{VehicleID: v.ID(), Color: v.Color(), Geometry: r.Geometry()})
	}
	return out
}

// Snapshots subscribes to the snapshots produced by UpdateAll.
func (c *Collection) Snapshots() <-chan Snapshot { return c.snapshots.Subscribe() }

// Events subscribes to the trip events of all vehicles. Events are queued
// per subscriber and never dropped.
func (c *Collection) Events() <-chan vehicle.Event { return c.events.Subscribe() }

// Close closes every subscription.
func (c *Collection) Close() {
	c.snapshots.Close()
	c.events.Close()
}
