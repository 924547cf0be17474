// Package metrics defines the observability contracts of the simulation.
// Sinks record per-tick fleet statistics and may additionally implement
// TripRecorder or VehicleStateRecorder. Concrete sinks register themselves
// by type name and are built from configuration with NewMetricsSink.
package metrics
