package mqtt

import (
	"time"

	"github.com/kilianp07/roadsim/core/fleet"
	coremqtt "github.com/kilianp07/roadsim/core/mqtt"
	"github.com/kilianp07/roadsim/infra/render"
)

// Topic suffixes below the configured prefix.
const (
	VehiclesTopic = "vehicles"
	RoutesTopic   = "routes"
)

// Renderer publishes GeoJSON snapshots over MQTT. Route sets are retained so
// that a map client joining late sees the current routes immediately.
type Renderer struct {
	pub    coremqtt.Publisher
	prefix string
	now    func() time.Time
}

// NewRenderer returns a Renderer publishing below prefix.
func NewRenderer(pub coremqtt.Publisher, prefix string) *Renderer {
	if prefix == "" {
		prefix = "roadsim"
	}
	return &Renderer{pub: pub, prefix: prefix, now: time.Now}
}

// Topic returns the full topic for a suffix.
func (r *Renderer) Topic(suffix string) string {
	return r.prefix + "/" + suffix
}

// SetVehicles publishes the vehicle FeatureCollection.
func (r *Renderer) SetVehicles(s fleet.Snapshot) error {
	payload, err := render.EncodeVehicles(s)
	if err != nil {
		return err
	}
	return r.pub.Publish(r.Topic(VehiclesTopic), payload, false)
}

// SetRoutes publishes the retained route FeatureCollection.
func (r *Renderer) SetRoutes(routes []fleet.RouteView) error {
	payload, err := render.EncodeRoutes(routes, r.now())
	if err != nil {
		return err
	}
	return r.pub.Publish(r.Topic(RoutesTopic), payload, true)
}

// Close disconnects the underlying publisher.
func (r *Renderer) Close() {
	r.pub.Disconnect()
}
