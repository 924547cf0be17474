package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/roadsim/config"
	"github.com/kilianp07/roadsim/core/route"
)

// RouterFactory builds a routing backend from the routing configuration.
type RouterFactory func(cfg config.RoutingConfig) (route.Router, error)

var Routers = map[string]RouterFactory{}

func RegisterRouter(name string, f RouterFactory) { Routers[name] = f }

// NewRouter builds the router selected by cfg.Mode.
func NewRouter(cfg config.RoutingConfig) (route.Router, error) {
	f, ok := Routers[cfg.Mode]
	if !ok {
		names := make([]string, 0, len(Routers))
		for n := range Routers {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown router %q (available: %v)", cfg.Mode, names)
	}
	return f(cfg)
}
