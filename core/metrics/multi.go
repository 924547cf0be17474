package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards to every sink and joins their errors.
func (m *MultiSink) RecordTick(s TickStats) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordTick(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTrip forwards to the sinks implementing TripRecorder.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	var errs []error
	for _, sink := range m.Sinks {
		if r, ok := sink.(TripRecorder); ok {
			if err := r.RecordTrip(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordVehicleStates forwards to the sinks implementing VehicleStateRecorder.
func (m *MultiSink) RecordVehicleStates(states []VehicleState) error {
	var errs []error
	for _, sink := range m.Sinks {
		if r, ok := sink.(VehicleStateRecorder); ok {
			if err := r.RecordVehicleStates(states); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold connections.
func (m *MultiSink) Close() {
	for _, sink := range m.Sinks {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
