// Package render turns simulation snapshots into GeoJSON payloads shared by
// the MQTT and WebSocket renderers.
package render

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/kilianp07/roadsim/core/color"
	"github.com/kilianp07/roadsim/core/fleet"
)

// Message kinds.
const (
	KindVehicles = "vehicles"
	KindRoutes   = "routes"
)

// Message is the envelope published to map clients.
type Message struct {
	Kind string                     `json:"kind"`
	Time time.Time                  `json:"time"`
	Data *geojson.FeatureCollection `json:"data"`
}

func hexOr(name string) string {
	if h, ok := color.Hex(name); ok {
		return h
	}
	return name
}

// Vehicles builds one Point feature per vehicle.
func Vehicles(snap fleet.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, v := range snap.Vehicles {
		f := geojson.NewFeature(v.Position)
		f.ID = v.ID
		f.Properties["id"] = v.ID
		f.Properties["color"] = hexOr(v.Color)
		f.Properties["bearing"] = v.Bearing
		f.Properties["speed"] = v.Speed
		f.Properties["driving"] = v.Driving
		f.Properties["length"] = v.Dimensions.Length
		f.Properties["width"] = v.Dimensions.Width
		f.Properties["height"] = v.Dimensions.Height
		fc.Append(f)
	}
	return fc
}

// Routes builds one LineString feature per driving vehicle.
func Routes(routes []fleet.RouteView) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		f := geojson.NewFeature(r.Geometry)
		f.ID = r.VehicleID
		f.Properties["vehicle_id"] = r.VehicleID
		f.Properties["color"] = hexOr(r.Color)
		fc.Append(f)
	}
	return fc
}

// EncodeVehicles returns the JSON message for a snapshot.
func EncodeVehicles(snap fleet.Snapshot) ([]byte, error) {
	return json.Marshal(Message{Kind: KindVehicles, Time: snap.Time, Data: Vehicles(snap)})
}

// EncodeRoutes returns the JSON message for a route set.
func EncodeRoutes(routes []fleet.RouteView, at time.Time) ([]byte, error) {
	return json.Marshal(Message{Kind: KindRoutes, Time: at, Data: Routes(routes)})
}
