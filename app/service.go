package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/kilianp07/roadsim/api"
	"github.com/kilianp07/roadsim/app/plugins"
	"github.com/kilianp07/roadsim/config"
	"github.com/kilianp07/roadsim/core/address"
	"github.com/kilianp07/roadsim/core/clock"
	"github.com/kilianp07/roadsim/core/color"
	"github.com/kilianp07/roadsim/core/fleet"
	coremetrics "github.com/kilianp07/roadsim/core/metrics"
	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/route"
	"github.com/kilianp07/roadsim/core/simulation"
	"github.com/kilianp07/roadsim/core/triplog"
	"github.com/kilianp07/roadsim/core/vehicle"
	"github.com/kilianp07/roadsim/infra/logger"
	"github.com/kilianp07/roadsim/infra/metrics"
	"github.com/kilianp07/roadsim/infra/mqtt"
	"github.com/kilianp07/roadsim/infra/render"
	"github.com/kilianp07/roadsim/infra/websocket"
)

// Option customises a Service, mostly for tests.
type Option func(*options)

type options struct {
	router    route.Router
	renderers []simulation.Renderer
}

// WithRouter replaces the router selected by the configuration.
func WithRouter(r route.Router) Option { return func(o *options) { o.router = r } }

// WithRenderer adds a renderer next to the configured ones.
func WithRenderer(r simulation.Renderer) Option {
	return func(o *options) { o.renderers = append(o.renderers, r) }
}

// Service builds the simulation from configuration and runs it.
type Service struct {
	cfg *config.Config
	log logger.Logger

	Models     *model.Catalog
	Addresses  *address.Book
	Colors     *color.Provider
	Clock      *clock.Clock
	Collection *fleet.Collection
	Sim        *simulation.Simulation

	sink  coremetrics.MetricsSink
	trips triplog.Store
	hub   *websocket.Hub
	mqtt  *mqtt.Renderer
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logg := logger.New("service")

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// one source per component, rand.Rand is not safe for concurrent use
	newRand := func(offset int64) *rand.Rand { return rand.New(rand.NewSource(seed + offset)) }

	s := &Service{cfg: cfg, log: logg}
	s.Models = model.NewCatalog(newRand(1))
	for _, spec := range cfg.Seed.Models {
		if _, err := s.Models.Create(spec); err != nil {
			return nil, fmt.Errorf("model %q: %w", spec.Name, err)
		}
	}
	s.Addresses = address.NewBook(newRand(2))
	if err := loadBook(s.Addresses, cfg.Seed.AddressBook); err != nil {
		return nil, err
	}
	s.Colors = color.NewProvider(newRand(3), logger.New("color"))

	router := o.router
	if router == nil {
		r, err := plugins.NewRouter(cfg.Routing)
		if err != nil {
			return nil, err
		}
		router = r
	}
	s.Collection = fleet.New(
		fleet.WithRand(newRand(4)),
		fleet.WithLogger(logger.New("fleet")),
		fleet.WithVehicleOptions(vehicle.WithRouter(router), vehicle.WithParams(cfg.Dynamics)),
	)

	clk, err := clock.New(cfg.Simulation.FrequencyHz)
	if err != nil {
		return nil, err
	}
	s.Clock = clk

	renderers, err := s.buildRenderers(o.renderers)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.trips, err = triplog.Open(cfg.TripLog.Backend, cfg.TripLog.Path, cfg.TripLog.Rotation)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("trip log: %w", err)
	}

	simOpts := []simulation.Option{
		simulation.WithRenderer(renderers),
		simulation.WithMetrics(s.sink),
		simulation.WithTripLog(s.trips),
		simulation.WithLogger(logger.New("simulation")),
		simulation.WithAddressBook(s.Addresses),
		simulation.WithModels(s.Models),
	}
	if cfg.Simulation.AutoRedrive {
		simOpts = append(simOpts, simulation.WithEventHandler(s.redrive))
	}
	s.Sim = simulation.New(s.Clock, s.Collection, simOpts...)
	return s, nil
}

func loadBook(b *address.Book, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("address book: %w", err)
	}
	defer f.Close()
	if err := b.Load(f); err != nil {
		return fmt.Errorf("address book %s: %w", path, err)
	}
	return nil
}

func (s *Service) buildRenderers(extra []simulation.Renderer) (simulation.MultiRenderer, error) {
	var rs simulation.MultiRenderer
	if s.cfg.Renderer.Log {
		rs = append(rs, render.LogRenderer{Log: logger.New("render")})
	}
	if s.cfg.Renderer.MQTT.Enabled {
		cli, err := mqtt.NewPahoClient(s.cfg.Renderer.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = mqtt.NewRenderer(cli, s.cfg.Renderer.MQTT.TopicPrefix)
		rs = append(rs, s.mqtt)
	}
	if s.cfg.Renderer.WebSocket.Enabled {
		s.hub = websocket.NewHub(logger.New("websocket"), s.cfg.Renderer.WebSocket.SendBuffer)
		rs = append(rs, s.hub)
	}
	return append(rs, extra...), nil
}

// Seed creates the configured number of vehicles, each with a random colour,
// model and starting address, and sends them to a random destination. A
// vehicle whose route cannot be resolved stays idle.
func (s *Service) Seed(ctx context.Context) error {
	for i := 1; i <= s.cfg.Simulation.FleetSize; i++ {
		id := fmt.Sprintf("veh%04d", i)
		m, err := s.Models.Random()
		if err != nil {
			return err
		}
		initial, err := s.Addresses.Random()
		if err != nil {
			return err
		}
		v, err := s.Collection.Create(id, s.Colors.Next(), m, initial)
		if err != nil {
			return err
		}
		dest, err := s.Addresses.Random()
		if err != nil {
			return err
		}
		if err := v.DriveTo(ctx, dest); err != nil {
			s.log.Warnf("vehicle %s to %s: %v", id, dest, err)
		}
	}
	s.log.Infof("seeded %d vehicles", s.Collection.Len())
	return nil
}

// redrive sends an arrived vehicle to a new random address.
func (s *Service) redrive(ctx context.Context, ev vehicle.Event) {
	if ev.Kind != vehicle.EventArrived {
		return
	}
	v, ok := s.Collection.Get(ev.VehicleID)
	if !ok {
		return
	}
	dest, err := s.Addresses.Random()
	if err != nil {
		s.log.Errorf("redrive %s: %v", ev.VehicleID, err)
		return
	}
	if err := v.DriveTo(ctx, dest); err != nil && ctx.Err() == nil {
		s.log.Warnf("redrive %s to %s: %v", ev.VehicleID, dest, err)
	}
}

// Run seeds the fleet if needed, starts the servers and the clock, and
// blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.hub != nil {
		ws := s.cfg.Renderer.WebSocket
		go func() {
			if err := websocket.Serve(ctx, ws.Address, ws.Path, s.hub); err != nil {
				s.log.Errorf("websocket server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		mux := api.NewMux(s.Collection, s.Addresses, s.trips, s.cfg.API.Token)
		go func() {
			if err := api.Serve(ctx, s.cfg.API.Address, mux); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	if s.Collection.Len() == 0 {
		if err := s.Seed(ctx); err != nil {
			return err
		}
	}
	if err := s.Sim.Start(); err != nil {
		return err
	}
	if err := s.Sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.Clock != nil {
		s.Clock.Close()
	}
	if s.Collection != nil {
		s.Collection.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.trips != nil {
		return s.trips.Close()
	}
	return nil
}
