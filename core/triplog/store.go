// Package triplog persists the start and end of every vehicle trip.
package triplog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/kilianp07/roadsim/core/vehicle"
)

// Record is one trip event.
type Record struct {
	ID            string    `json:"id"`
	VehicleID     string    `json:"vehicle_id"`
	Kind          string    `json:"kind"`
	Position      orb.Point `json:"position"`
	Destination   orb.Point `json:"destination"`
	RouteLengthKm float64   `json:"route_length_km"`
	Time          time.Time `json:"time"`
}

// FromEvent converts a vehicle event into a record with a fresh id.
func FromEvent(e vehicle.Event) Record {
	return Record{
		ID:            uuid.NewString(),
		VehicleID:     e.VehicleID,
		Kind:          string(e.Kind),
		Position:      e.Position,
		Destination:   e.Destination,
		RouteLengthKm: e.RouteLength,
		Time:          e.Time,
	}
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	Kind      string
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return true
}

// Store persists records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore drops every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }

// Open returns the store for backend: "jsonl", "rotating", "sqlite", or
// "none"/"" for a NopStore. rot only applies to "rotating".
func Open(backend, path string, rot Rotation) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		return NewJSONLStore(path)
	case "rotating":
		return NewRotatingJSONLStore(path, rot)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown trip log backend %q", backend)
	}
}
