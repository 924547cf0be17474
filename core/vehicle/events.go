package vehicle

import (
	"time"

	"github.com/paulmach/orb"
)

// EventKind names a vehicle lifecycle transition.
type EventKind string

const (
	EventRouteAcquired EventKind = "route_acquired"
	EventArrived       EventKind = "arrived"
)

// Event is emitted when a vehicle starts or finishes a trip.
type Event struct {
	Kind        EventKind
	VehicleID   string
	Color       string
	Position    orb.Point
	Destination orb.Point
	// RouteLength is the trip length in kilometres.
	RouteLength float64
	Time        time.Time
}

// Notifier receives vehicle events. Notify is called without any vehicle
// lock held and must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(e Event) { f(e) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
