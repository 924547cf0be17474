package config

import (
	"fmt"

	"github.com/kilianp07/roadsim/infra/osrm"
)

// Routing modes.
const (
	RoutingOSRM   = "osrm"
	RoutingDirect = "direct"
)

// RoutingConfig selects the routing backend.
type RoutingConfig struct {
	Mode string      `json:"mode"`
	OSRM osrm.Config `json:"osrm"`
	// DirectSegments is the number of pieces per leg for the direct router.
	DirectSegments int `json:"direct_segments"`
}

func (c *RoutingConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = RoutingDirect
	}
	if c.OSRM.BaseURL == "" {
		c.OSRM.BaseURL = "https://router.project-osrm.org"
	}
	if c.DirectSegments <= 0 {
		c.DirectSegments = 10
	}
}

func (c RoutingConfig) Validate() error {
	if c.Mode != RoutingOSRM && c.Mode != RoutingDirect {
		return fmt.Errorf("routing: unknown mode %s", c.Mode)
	}
	return nil
}
