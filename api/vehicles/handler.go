package vehicles

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/vehicle"
)

// Status extends the renderable view with trip progress.
type Status struct {
	vehicle.View
	Pedal         float64    `json:"pedal"`
	DistanceKm    float64    `json:"distance_km"`
	RouteLengthKm float64    `json:"route_length_km,omitempty"`
	Destination   *orb.Point `json:"destination,omitempty"`
}

func statusOf(v *vehicle.Vehicle) Status {
	s := Status{
		View:       v.View(),
		Pedal:      v.Pedal(),
		DistanceKm: v.Distance(),
	}
	if r := v.Route(); r != nil {
		s.RouteLengthKm = r.Length()
	}
	if dest, ok := v.Destination(); ok {
		s.Destination = &dest
	}
	return s
}

// NewStatusHandler returns an HTTP handler exposing vehicle state via GET /api/vehicles.
// The optional driving=true|false query parameter filters on trip state.
func NewStatusHandler(col *fleet.Collection) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var driving *bool
		if s := r.URL.Query().Get("driving"); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				http.Error(w, "invalid driving filter", http.StatusBadRequest)
				return
			}
			driving = &b
		}
		entries := []Status{}
		for _, v := range col.Vehicles() {
			s := statusOf(v)
			if driving != nil && s.Driving != *driving {
				continue
			}
			entries = append(entries, s)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
