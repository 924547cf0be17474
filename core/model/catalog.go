package model

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrEmptyCatalog is returned by Random when no model is registered.
var ErrEmptyCatalog = errors.New("model catalog is empty")

// Catalog groups the vehicle models available to the simulation. Duplicates
// are allowed.
type Catalog struct {
	mu     sync.RWMutex
	models []*VehicleModel
	rng    *rand.Rand
}

// NewCatalog creates an empty catalog. A nil rng is replaced by a time seeded one.
func NewCatalog(rng *rand.Rand) *Catalog {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Catalog{rng: rng}
}

// Add registers an existing model.
func (c *Catalog) Add(m *VehicleModel) {
	if m == nil {
		return
	}
	c.mu.Lock()
	c.models = append(c.models, m)
	c.mu.Unlock()
}

// Create builds a model from s and adds it to the catalog.
func (c *Catalog) Create(s Spec) (*VehicleModel, error) {
	m, err := New(s)
	if err != nil {
		return nil, err
	}
	c.Add(m)
	return m, nil
}

// Random returns a uniformly chosen model.
func (c *Catalog) Random() (*VehicleModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.models) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c.models[c.rng.Intn(len(c.models))], nil
}

// Models returns a copy of the registered models in insertion order.
func (c *Catalog) Models() []*VehicleModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*VehicleModel, len(c.models))
	copy(out, c.models)
	return out
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}
