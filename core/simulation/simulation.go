// Package simulation wires the clock, the vehicle collection and the
// renderers together. It holds no physics.
//
// Every clock tick triggers one Collection.UpdateAll pass whose snapshot is
// handed to the renderer and the metrics sink. Trip events refresh the
// rendered routes and are appended to the trip log.
package simulation

import (
	"context"
	"errors"
	"sync"

	"github.com/kilianp07/roadsim/core/address"
	"github.com/kilianp07/roadsim/core/clock"
	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/logger"
	"github.com/kilianp07/roadsim/core/metrics"
	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/triplog"
	"github.com/kilianp07/roadsim/core/vehicle"
)

// EventHandler is called for trip events after they were recorded. It runs
// on its own goroutine so it may block, e.g. to compute a new route.
type EventHandler func(ctx context.Context, e vehicle.Event)

// Option configures a Simulation.
type Option func(*Simulation)

func WithRenderer(r Renderer) Option           { return func(s *Simulation) { s.renderer = r } }
func WithMetrics(m metrics.MetricsSink) Option { return func(s *Simulation) { s.sink = m } }
func WithTripLog(t triplog.Store) Option       { return func(s *Simulation) { s.trips = t } }
func WithLogger(l logger.Logger) Option        { return func(s *Simulation) { s.log = logger.OrNop(l) } }
func WithAddressBook(b *address.Book) Option   { return func(s *Simulation) { s.addresses = b } }
func WithModels(c *model.Catalog) Option       { return func(s *Simulation) { s.models = c } }
func WithEventHandler(h EventHandler) Option   { return func(s *Simulation) { s.onEvent = h } }

// Simulation is the composition of a clock and a vehicle collection.
type Simulation struct {
	clock      *clock.Clock
	collection *fleet.Collection
	addresses  *address.Book
	models     *model.Catalog

	renderer Renderer
	sink     metrics.MetricsSink
	trips    triplog.Store
	log      logger.Logger
	onEvent  EventHandler

	ticks  <-chan clock.Event
	events <-chan vehicle.Event

	handlers sync.WaitGroup
}

// New subscribes to c and col. Nothing happens until Run and Start are called.
func New(c *clock.Clock, col *fleet.Collection, opts ...Option) *Simulation {
	s := &Simulation{
		clock:      c,
		collection: col,
		renderer:   NopRenderer{},
		sink:       metrics.NopSink{},
		trips:      triplog.NopStore{},
		log:        logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ticks = c.Subscribe()
	s.events = col.Events()
	return s
}

func (s *Simulation) Clock() *clock.Clock           { return s.clock }
func (s *Simulation) Collection() *fleet.Collection { return s.collection }
func (s *Simulation) AddressBook() *address.Book    { return s.addresses }
func (s *Simulation) Models() *model.Catalog        { return s.models }

// Start starts the clock. Misuse is logged and returned.
func (s *Simulation) Start() error {
	if err := s.clock.Start(); err != nil {
		s.log.Errorf("start clock: %v", err)
		return err
	}
	s.log.Infof("simulation started at %.2f Hz with %d vehicles", s.clock.Frequency(), s.collection.Len())
	return nil
}

// Stop stops the clock. An update pass already running completes.
func (s *Simulation) Stop() error {
	if err := s.clock.Stop(); err != nil {
		s.log.Errorf("stop clock: %v", err)
		return err
	}
	s.log.Infof("simulation stopped")
	return nil
}

// Run processes ticks and trip events until ctx is canceled or the clock is
// closed. The clock is stopped on return.
func (s *Simulation) Run(ctx context.Context) error {
	defer s.handlers.Wait()
	defer func() {
		if err := s.clock.Stop(); err != nil && !errors.Is(err, clock.ErrNotRunning) {
			s.log.Errorf("stop clock: %v", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.ticks:
			if !ok {
				return nil
			}
			if ev.Kind == clock.EventTick {
				s.tick()
			}
		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				continue
			}
			s.trip(ctx, ev)
		}
	}
}

// Tick runs one update pass outside of the clock.
func (s *Simulation) Tick() fleet.Snapshot { return s.tick() }

func (s *Simulation) tick() fleet.Snapshot {
	snap := s.collection.UpdateAll()
	if err := s.renderer.SetVehicles(snap); err != nil {
		s.log.Errorf("render vehicles: %v", err)
	}
	if err := s.sink.RecordTick(TickStats(snap)); err != nil {
		s.log.Errorf("record tick: %v", err)
	}
	if rec, ok := s.sink.(metrics.VehicleStateRecorder); ok {
		if err := rec.RecordVehicleStates(vehicleStates(snap)); err != nil {
			s.log.Errorf("record vehicle states: %v", err)
		}
	}
	return snap
}

func (s *Simulation) trip(ctx context.Context, ev vehicle.Event) {
	s.log.Infow("trip event", map[string]any{
		"vehicle_id": ev.VehicleID,
		"kind":       string(ev.Kind),
		"route_km":   ev.RouteLength,
	})
	if err := s.renderer.SetRoutes(s.collection.Routes()); err != nil {
		s.log.Errorf("render routes: %v", err)
	}
	if err := s.trips.Append(ctx, triplog.FromEvent(ev)); err != nil {
		s.log.Errorf("trip log: %v", err)
	}
	if rec, ok := s.sink.(metrics.TripRecorder); ok {
		err := rec.RecordTrip(metrics.TripEvent{
			VehicleID:     ev.VehicleID,
			Kind:          string(ev.Kind),
			RouteLengthKm: ev.RouteLength,
			Time:          ev.Time,
		})
		if err != nil {
			s.log.Errorf("record trip: %v", err)
		}
	}
	if s.onEvent != nil {
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.onEvent(ctx, ev)
		}()
	}
}
