package metrics

import "time"

// TickStats summarises one fleet update pass.
type TickStats struct {
	Time      time.Time
	Vehicles  int
	Driving   int
	Failed    int
	MeanSpeed float64
	MaxSpeed  float64
	StdSpeed  float64
	Duration  time.Duration
}

// MetricsSink records per-tick statistics.
type MetricsSink interface {
	RecordTick(TickStats) error
}

// TripEvent is a vehicle starting or finishing a trip.
type TripEvent struct {
	VehicleID     string
	Kind          string
	RouteLengthKm float64
	Time          time.Time
}

// TripRecorder records trip events.
type TripRecorder interface {
	RecordTrip(TripEvent) error
}

// VehicleState is the state of one vehicle at the end of a tick.
type VehicleState struct {
	VehicleID string
	Lon       float64
	Lat       float64
	Bearing   float64
	Speed     float64
	Driving   bool
	Time      time.Time
}

// VehicleStateRecorder records vehicle states.
type VehicleStateRecorder interface {
	RecordVehicleStates([]VehicleState) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickStats) error               { return nil }
func (NopSink) RecordTrip(TripEvent) error               { return nil }
func (NopSink) RecordVehicleStates([]VehicleState) error { return nil }
