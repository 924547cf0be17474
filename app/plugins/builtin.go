package plugins

import (
	"github.com/kilianp07/roadsim/config"
	"github.com/kilianp07/roadsim/core/route"
	"github.com/kilianp07/roadsim/infra/osrm"
)

func init() {
	RegisterRouter(config.RoutingDirect, func(cfg config.RoutingConfig) (route.Router, error) {
		return route.DirectRouter{Segments: cfg.DirectSegments}, nil
	})
	RegisterRouter(config.RoutingOSRM, func(cfg config.RoutingConfig) (route.Router, error) {
		return osrm.New(cfg.OSRM), nil
	})
}
