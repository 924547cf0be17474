package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/roadsim/core/route"
	"github.com/kilianp07/roadsim/core/vehicle"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	m, err := sc.Model.ToModel()
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	now := time.Unix(0, 0)
	v, err := vehicle.New("qa", "red", m, sc.origin(),
		vehicle.WithClock(func() time.Time { return now }),
		vehicle.WithRouter(route.DirectRouter{Segments: sc.Segments}),
		vehicle.WithParams(sc.Params()),
	)
	if err != nil {
		t.Fatalf("vehicle: %v", err)
	}
	if err := v.DriveTo(context.Background(), vehicle.Point(sc.destination())); err != nil {
		t.Fatalf("drive: %v", err)
	}
	length := v.Route().Length()

	step := time.Duration(sc.StepSeconds * float64(time.Second))
	arrivedAt := 0
	lastDistance := 0.0
	for tick := 1; tick <= sc.MaxTicks; tick++ {
		for _, p := range sc.Pedal {
			if p.Tick == tick {
				if err := v.SetPedal(p.Value); err != nil {
					t.Fatalf("tick %d: set pedal: %v", tick, err)
				}
			}
		}
		now = now.Add(step)
		if err := v.UpdatePosition(); err != nil {
			t.Fatalf("tick %d: update: %v", tick, err)
		}
		if v.Speed() < 0 {
			t.Fatalf("tick %d: negative speed %g", tick, v.Speed())
		}
		if !v.Driving() {
			arrivedAt = tick
			break
		}
		if d := v.Distance(); d < lastDistance || d > length {
			t.Fatalf("tick %d: distance %g outside [%g, %g]", tick, d, lastDistance, length)
		}
		lastDistance = v.Distance()
	}

	arrived := arrivedAt > 0
	if arrived != sc.Expected.Arrived {
		t.Fatalf("scenario %s: arrived=%v, expected %v", sc.Name, arrived, sc.Expected.Arrived)
	}
	if !arrived {
		return
	}
	if sc.Expected.ArrivalTick > 0 && arrivedAt != sc.Expected.ArrivalTick {
		t.Errorf("scenario %s: arrived at tick %d, expected %d", sc.Name, arrivedAt, sc.Expected.ArrivalTick)
	}
	if v.Position() != sc.destination() {
		t.Errorf("scenario %s: position %v, expected destination %v", sc.Name, v.Position(), sc.destination())
	}
	if v.Speed() != 0 || v.Distance() != 0 || v.Route() != nil {
		t.Errorf("scenario %s: vehicle not reset on arrival", sc.Name)
	}
}
