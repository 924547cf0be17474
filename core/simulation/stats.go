package simulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/metrics"
)

// TickStats summarises a snapshot. Speed figures cover driving vehicles only.
func TickStats(snap fleet.Snapshot) metrics.TickStats {
	st := metrics.TickStats{
		Time:     snap.Time,
		Vehicles: len(snap.Vehicles),
		Failed:   snap.Failed,
		Duration: snap.Duration,
	}
	speeds := make([]float64, 0, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		if v.Driving {
			speeds = append(speeds, v.Speed)
		}
	}
	st.Driving = len(speeds)
	switch len(speeds) {
	case 0:
	case 1:
		st.MeanSpeed, st.MaxSpeed = speeds[0], speeds[0]
	default:
		st.MeanSpeed, st.StdSpeed = stat.MeanStdDev(speeds, nil)
		st.MaxSpeed = floats.Max(speeds)
	}
	return st
}

func vehicleStates(snap fleet.Snapshot) []metrics.VehicleState {
	out := make([]metrics.VehicleState, len(snap.Vehicles))
	for i, v := range snap.Vehicles {
		out[i] = metrics.VehicleState{
			VehicleID: v.ID,
			Lon:       v.Position.Lon(),
			Lat:       v.Position.Lat(),
			Bearing:   v.Bearing,
			Speed:     v.Speed,
			Driving:   v.Driving,
			Time:      snap.Time,
		}
	}
	return out
}
