// Package address holds postal addresses together with the coordinates a
// geocoding service resolved for them.
package address

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

var (
	// ErrNotResolved is returned when a position is requested from an
	// address without candidate locations.
	ErrNotResolved = errors.New("address not resolved")
	// ErrLocationNotFound is returned by resolvers when a query matches nothing.
	ErrLocationNotFound = errors.New("location not found")
	// ErrAlreadyResolved is returned by Resolve when locations are already known.
	ErrAlreadyResolved = errors.New("address already resolved")
)

// Location is one geocoding candidate. Coordinates are kept as the decimal
// strings returned by the service.
type Location struct {
	PlaceID     int64    `json:"place_id,omitempty"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name,omitempty"`
	Class       string   `json:"class,omitempty"`
	Type        string   `json:"type,omitempty"`
	Importance  float64  `json:"importance,omitempty"`
	BoundingBox []string `json:"boundingbox,omitempty"`
}

// Point parses the location into a lon/lat point.
func (l Location) Point() (orb.Point, error) {
	lon, err := strconv.ParseFloat(l.Lon, 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse lon %q: %w", l.Lon, err)
	}
	lat, err := strconv.ParseFloat(l.Lat, 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse lat %q: %w", l.Lat, err)
	}
	return orb.Point{lon, lat}, nil
}

// Resolver turns a free text query into ranked candidate locations.
type Resolver interface {
	Search(ctx context.Context, query string, limit int) ([]Location, error)
}

// Address is a street/city/country triple and its resolved candidates.
type Address struct {
	street    string
	city      string
	country   string
	locations []Location
}

// New creates an address. locations may be nil for an unresolved address.
func New(street, city, country string, locations []Location) *Address {
	return &Address{
		street:    street,
		city:      city,
		country:   country,
		locations: append([]Location(nil), locations...),
	}
}

// Create builds an address and resolves it right away.
func Create(ctx context.Context, r Resolver, street, city, country string) (*Address, error) {
	a := New(street, city, country, nil)
	if err := a.Resolve(ctx, r); err != nil {
		return nil, err
	}
	return a, nil
}

// Resolve queries r for the address. It returns ErrAlreadyResolved and keeps
// the current locations when the address already has some.
func (a *Address) Resolve(ctx context.Context, r Resolver) error {
	if a.Resolved() {
		return ErrAlreadyResolved
	}
	locs, err := r.Search(ctx, a.String(), 1)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", a.String(), err)
	}
	if len(locs) == 0 {
		return fmt.Errorf("resolve %q: %w", a.String(), ErrLocationNotFound)
	}
	a.locations = locs
	return nil
}

// Resolved reports whether at least one location is known.
func (a *Address) Resolved() bool { return len(a.locations) > 0 }

// Position returns the coordinate of the best candidate.
func (a *Address) Position() (orb.Point, error) { return a.PositionAt(0) }

// PositionAt returns the coordinate of the i-th candidate.
func (a *Address) PositionAt(i int) (orb.Point, error) {
	if !a.Resolved() {
		return orb.Point{}, fmt.Errorf("%w: %s", ErrNotResolved, a.String())
	}
	if i < 0 || i >= len(a.locations) {
		return orb.Point{}, fmt.Errorf("location index %d out of range [0,%d)", i, len(a.locations))
	}
	return a.locations[i].Point()
}

func (a *Address) Street() string  { return a.street }
func (a *Address) City() string    { return a.city }
func (a *Address) Country() string { return a.country }

// Locations returns a copy of the candidates.
func (a *Address) Locations() []Location { return append([]Location(nil), a.locations...) }

func (a *Address) String() string {
	return fmt.Sprintf("%s, %s, %s", a.street, a.city, a.country)
}

// Record is the serialised form of an address.
type Record struct {
	Street    string     `json:"street"`
	City      string     `json:"city"`
	Country   string     `json:"country"`
	Locations []Location `json:"locations"`
}

// Serialize returns the record form of the address.
func (a *Address) Serialize() Record {
	return Record{Street: a.street, City: a.city, Country: a.country, Locations: a.Locations()}
}
