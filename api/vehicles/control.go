package vehicles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/paulmach/orb"

	"github.com/kilianp07/roadsim/core/address"
	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/route"
	"github.com/kilianp07/roadsim/core/vehicle"
)

type pedalRequest struct {
	Value *float64 `json:"value"`
}

// driveRequest targets either explicit coordinates or a random address from the book.
type driveRequest struct {
	Lon    *float64 `json:"lon"`
	Lat    *float64 `json:"lat"`
	Random bool     `json:"random"`
}

// NewControlHandler exposes per-vehicle commands:
//
//	GET  /api/vehicles/{id}
//	POST /api/vehicles/{id}/pedal  {"value": 0.4}
//	POST /api/vehicles/{id}/drive  {"lon": 2.57, "lat": 44.35} or {"random": true}
func NewControlHandler(col *fleet.Collection, book *address.Book) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/vehicles/"), "/")
		parts := strings.Split(path, "/")
		if parts[0] == "" || len(parts) > 2 {
			http.NotFound(w, r)
			return
		}
		v, ok := col.Get(parts[0])
		if !ok {
			http.Error(w, "unknown vehicle", http.StatusNotFound)
			return
		}
		if len(parts) == 1 {
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			writeStatus(w, http.StatusOK, v)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch parts[1] {
		case "pedal":
			setPedal(w, r, v)
		case "drive":
			drive(w, r, v, book)
		default:
			http.NotFound(w, r)
		}
	})
}

func setPedal(w http.ResponseWriter, r *http.Request, v *vehicle.Vehicle) {
	var req pedalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := v.SetPedal(*req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeStatus(w, http.StatusOK, v)
}

func drive(w http.ResponseWriter, r *http.Request, v *vehicle.Vehicle, book *address.Book) {
	var req driveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	var dest vehicle.Place
	switch {
	case req.Random:
		if book == nil {
			http.Error(w, "no address book", http.StatusBadRequest)
			return
		}
		a, err := book.Random()
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		dest = a
	case req.Lon != nil && req.Lat != nil:
		if *req.Lon < -180 || *req.Lon > 180 || *req.Lat < -90 || *req.Lat > 90 {
			http.Error(w, "coordinates out of range", http.StatusBadRequest)
			return
		}
		dest = vehicle.Point(orb.Point{*req.Lon, *req.Lat})
	default:
		http.Error(w, "missing destination", http.StatusBadRequest)
		return
	}
	if err := v.DriveTo(r.Context(), dest); err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, route.ErrNoRouteFound) {
			code = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), code)
		return
	}
	writeStatus(w, http.StatusAccepted, v)
}

func writeStatus(w http.ResponseWriter, code int, v *vehicle.Vehicle) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(statusOf(v))
}
