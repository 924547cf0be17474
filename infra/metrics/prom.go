package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/roadsim/core/metrics"
)

// PromSink exposes fleet statistics as Prometheus metrics.
type PromSink struct {
	vehicles  prometheus.Gauge
	driving   prometheus.Gauge
	meanSpeed prometheus.Gauge
	maxSpeed  prometheus.Gauge
	failures  prometheus.Counter
	ticks     prometheus.Counter
	duration  prometheus.Histogram
	trips     *prometheus.CounterVec
	tripKm    prometheus.Counter
}

// NewPromSink registers the simulation metrics on the default registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		vehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadsim_vehicles",
			Help: "Number of simulated vehicles",
		}),
		driving: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadsim_vehicles_driving",
			Help: "Number of vehicles currently following a route",
		}),
		meanSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadsim_speed_mean",
			Help: "Mean speed of driving vehicles",
		}),
		maxSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadsim_speed_max",
			Help: "Maximum speed among driving vehicles",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadsim_vehicle_update_failures_total",
			Help: "Vehicle updates that returned an error",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadsim_ticks_total",
			Help: "Fleet update passes",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roadsim_update_duration_seconds",
			Help:    "Time spent updating the whole fleet",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadsim_trip_events_total",
			Help: "Trip events by kind",
		}, []string{"kind"}),
		tripKm: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadsim_trip_distance_km_total",
			Help: "Kilometres of completed trips",
		}),
	}
	var err error
	if s.vehicles, err = register(reg, s.vehicles); err != nil {
		return nil, err
	}
	if s.driving, err = register(reg, s.driving); err != nil {
		return nil, err
	}
	if s.meanSpeed, err = register(reg, s.meanSpeed); err != nil {
		return nil, err
	}
	if s.maxSpeed, err = register(reg, s.maxSpeed); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.ticks, err = register(reg, s.ticks); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.tripKm, err = register(reg, s.tripKm); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick updates the fleet gauges.
func (s *PromSink) RecordTick(st coremetrics.TickStats) error {
	s.vehicles.Set(float64(st.Vehicles))
	s.driving.Set(float64(st.Driving))
	s.meanSpeed.Set(st.MeanSpeed)
	s.maxSpeed.Set(st.MaxSpeed)
	s.failures.Add(float64(st.Failed))
	s.ticks.Inc()
	s.duration.Observe(st.Duration.Seconds())
	return nil
}

// RecordTrip counts trip events by kind.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(ev.Kind).Inc()
	if ev.Kind == "arrived" && ev.RouteLengthKm > 0 {
		s.tripKm.Add(ev.RouteLengthKm)
	}
	return nil
}
