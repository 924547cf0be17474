package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/vehicle"
)

func TestEncodeVehicles(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	snap := fleet.Snapshot{Time: now, Vehicles: []vehicle.View{{
		ID: "veh0001", Color: "red", Position: orb.Point{2.57, 44.35}, Bearing: 90, Speed: 3, Driving: true,
		Dimensions: model.Dimensions{Length: 4, Width: 1.7, Height: 1.4},
	}}}
	data, err := EncodeVehicles(snap)
	require.NoError(t, err)

	var msg struct {
		Kind string          `json:"kind"`
		Time time.Time       `json:"time"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, KindVehicles, msg.Kind)
	assert.True(t, msg.Time.Equal(now))

	fc, err := geojson.UnmarshalFeatureCollection(msg.Data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, orb.Point{2.57, 44.35}, f.Geometry)
	assert.Equal(t, "veh0001", f.Properties.MustString("id"))
	assert.Equal(t, "#ff0000", f.Properties.MustString("color"))
	assert.Equal(t, 90.0, f.Properties.MustFloat64("bearing"))
	assert.Equal(t, 1.7, f.Properties.MustFloat64("width"))
	assert.True(t, f.Properties.MustBool("driving"))
}

func TestEncodeRoutes(t *testing.T) {
	routes := []fleet.RouteView{{VehicleID: "veh0002", Color: "#00ff00", Geometry: orb.LineString{{2.57, 44.35}, {2.58, 44.36}}}}
	data, err := EncodeRoutes(routes, time.Now())
	require.NoError(t, err)

	var msg struct {
		Kind string          `json:"kind"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, KindRoutes, msg.Kind)
	fc, err := geojson.UnmarshalFeatureCollection(msg.Data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.LineString{{2.57, 44.35}, {2.58, 44.36}}, fc.Features[0].Geometry)
	assert.Equal(t, "#00ff00", fc.Features[0].Properties.MustString("color"))
	assert.Equal(t, "veh0002", fc.Features[0].Properties.MustString("vehicle_id"))
}

func TestUnknownColourKeptAsIs(t *testing.T) {
	fc := Vehicles(fleet.Snapshot{Vehicles: []vehicle.View{{ID: "a", Color: "octarine"}}})
	assert.Equal(t, "octarine", fc.Features[0].Properties["color"])
}

func TestLogRenderer(t *testing.T) {
	r := LogRenderer{}
	require.NoError(t, r.SetVehicles(fleet.Snapshot{Vehicles: []vehicle.View{{Driving: true}}}))
	require.NoError(t, r.SetRoutes(nil))
}
