package render

import (
	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/logger"
)

// LogRenderer writes a short summary of every snapshot at debug level.
type LogRenderer struct {
	Log logger.Logger
}

// SetVehicles logs the driving count and update duration.
func (r LogRenderer) SetVehicles(s fleet.Snapshot) error {
	driving := 0
	for _, v := range s.Vehicles {
		if v.Driving {
			driving++
		}
	}
	logger.OrNop(r.Log).Debugw("snapshot", map[string]any{
		"vehicles": len(s.Vehicles),
		"driving":  driving,
		"failed":   s.Failed,
		"took":     s.Duration.String(),
	})
	return nil
}

// SetRoutes logs the number of routes.
func (r LogRenderer) SetRoutes(routes []fleet.RouteView) error {
	logger.OrNop(r.Log).Debugw("routes", map[string]any{"routes": len(routes)})
	return nil
}
