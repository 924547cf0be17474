package vehicle

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/route"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

var origin = orb.Point{2.5755, 44.3506}

func kmEast() orb.Point { return geo.PointAtBearingAndDistance(origin, 90, 1000) }

func straightRouter() route.Router {
	return route.RouterFunc(func(_ context.Context, wp ...orb.Point) ([]route.Candidate, error) {
		return []route.Candidate{{Geometry: orb.LineString{wp[0], wp[len(wp)-1]}}}, nil
	})
}

func testModel(t *testing.T, s model.Spec) *model.VehicleModel {
	t.Helper()
	m, err := model.New(s)
	require.NoError(t, err)
	return m
}

// no frontal area, so no drag
func flatModel(t *testing.T) *model.VehicleModel {
	return testModel(t, model.Spec{Name: "flat", MassKg: 1000, MaxEngineForceN: 3000, MaxBrakeForceN: 5000})
}

func TestNewValidation(t *testing.T) {
	m := flatModel(t)
	_, err := New("", "red", m, origin)
	require.Error(t, err)
	_, err = New("v1", "red", nil, origin)
	require.Error(t, err)

	v, err := New("v1", "red", m, origin)
	require.NoError(t, err)
	assert.Equal(t, "v1", v.ID())
	assert.Equal(t, "red", v.Color())
	assert.Same(t, m, v.Model())
	assert.Equal(t, origin, v.Position())
	assert.False(t, v.Driving())
	assert.Nil(t, v.Route())
}

func TestUpdateIdleIsNoop(t *testing.T) {
	clk := newClock()
	v, err := New("v1", "red", flatModel(t), origin, WithClock(clk.now))
	require.NoError(t, err)
	require.NoError(t, v.SetPedal(1))
	before := v.View()
	for i := 0; i < 10; i++ {
		clk.advance(time.Second)
		require.NoError(t, v.UpdatePosition())
	}
	assert.Equal(t, before, v.View())
}

func TestDriveToConvergesOnDestination(t *testing.T) {
	clk := newClock()
	var events []Event
	v, err := New("v1", "red", flatModel(t), origin,
		WithClock(clk.now),
		WithRouter(straightRouter()),
		WithNotifier(NotifierFunc(func(e Event) { events = append(events, e) })),
	)
	require.NoError(t, err)

	dest := kmEast()
	require.NoError(t, v.DriveTo(context.Background(), Point(dest)))
	require.True(t, v.Driving())
	assert.InDelta(t, 0.2, v.Pedal(), 1e-12)
	assert.InDelta(t, 0.001, v.Speed(), 1e-12)
	assert.Zero(t, v.Distance())
	length := v.Route().Length()
	assert.InDelta(t, 1.0, length, 1e-3)
	require.Len(t, events, 1)
	assert.Equal(t, EventRouteAcquired, events[0].Kind)
	assert.Equal(t, dest, events[0].Destination)

	prev := 0.0
	ticks := 0
	for v.Driving() {
		require.Less(t, ticks, 100, "vehicle never arrived")
		clk.advance(time.Second)
		require.NoError(t, v.UpdatePosition())
		ticks++
		if !v.Driving() {
			break
		}
		d := v.Distance()
		assert.Greater(t, d, prev)
		assert.LessOrEqual(t, d, length)
		assert.LessOrEqual(t, geo.DistanceHaversine(origin, v.Position()), 1000.0+1e-6)
		assert.InDelta(t, 90, v.Bearing(), 0.1)
		prev = d
	}

	// net force 453 N: 0.5*0.453*t²/100 >= 1 after about 21 s
	assert.InDelta(t, 21, ticks, 2)
	assert.Equal(t, dest, v.Position())
	assert.Nil(t, v.Route())
	assert.Zero(t, v.Speed())
	assert.Zero(t, v.Distance())
	_, driving := v.Destination()
	assert.False(t, driving)

	require.Len(t, events, 2)
	assert.Equal(t, EventArrived, events[1].Kind)
	assert.Equal(t, dest, events[1].Position)
	assert.InDelta(t, length, events[1].RouteLength, 1e-12)
}

func TestBrakingNeverReverses(t *testing.T) {
	clk := newClock()
	m := testModel(t, model.Spec{Name: "van", MassKg: 2000, WidthM: 2, HeightM: 2.5, MaxEngineForceN: 4000, MaxBrakeForceN: 9000})
	v, err := New("v1", "red", m, origin, WithClock(clk.now), WithRouter(straightRouter()))
	require.NoError(t, err)
	require.NoError(t, v.DriveTo(context.Background(), Point(kmEast())))

	pedals := []float64{1, 1, -1, 0.5, -0.3, -1, 0, -1, 1, -0.1}
	for i := 0; i < 50; i++ {
		require.NoError(t, v.SetPedal(pedals[i%len(pedals)]))
		clk.advance(700 * time.Millisecond)
		require.NoError(t, v.UpdatePosition())
		assert.GreaterOrEqual(t, v.Speed(), 0.0)
	}
}

func TestSetPedal(t *testing.T) {
	v, err := New("v1", "red", flatModel(t), origin)
	require.NoError(t, err)
	for _, p := range []float64{-1, -0.5, 0, 0.3, 1} {
		require.NoError(t, v.SetPedal(p))
		assert.Equal(t, p, v.Pedal())
	}
	for _, p := range []float64{-1.0001, 1.5, math.NaN(), math.Inf(1)} {
		err := v.SetPedal(p)
		require.ErrorIs(t, err, ErrInvalidPedal)
		assert.Equal(t, 1.0, v.Pedal())
	}
}

func TestPedalTakesEffectOnNextUpdate(t *testing.T) {
	clk := newClock()
	v, err := New("v1", "red", flatModel(t), origin, WithClock(clk.now), WithRouter(straightRouter()))
	require.NoError(t, err)
	require.NoError(t, v.DriveTo(context.Background(), Point(kmEast())))

	require.NoError(t, v.SetPedal(1))
	assert.InDelta(t, 0.001, v.Speed(), 1e-12)
	clk.advance(time.Second)
	require.NoError(t, v.UpdatePosition())
	// (3000 - 147) / 1000
	assert.InDelta(t, 0.001+2.853, v.Speed(), 1e-9)
}

func TestDriveToFailureKeepsState(t *testing.T) {
	m := flatModel(t)

	v, err := New("v1", "red", m, origin)
	require.NoError(t, err)
	require.ErrorIs(t, v.DriveTo(context.Background(), Point(kmEast())), ErrNoRouter)

	empty := route.RouterFunc(func(context.Context, ...orb.Point) ([]route.Candidate, error) { return nil, nil })
	v, err = New("v2", "red", m, origin, WithRouter(empty))
	require.NoError(t, err)
	require.ErrorIs(t, v.DriveTo(context.Background(), Point(kmEast())), route.ErrNoRouteFound)
	assert.False(t, v.Driving())
	assert.Zero(t, v.Pedal())

	unresolved := errors.New("unresolved")
	err = v.DriveTo(context.Background(), placeFunc(func() (orb.Point, error) { return orb.Point{}, unresolved }))
	require.ErrorIs(t, err, unresolved)
	assert.False(t, v.Driving())
}

type placeFunc func() (orb.Point, error)

func (f placeFunc) Position() (orb.Point, error) { return f() }

func TestZeroMassIsReported(t *testing.T) {
	clk := newClock()
	m := testModel(t, model.Spec{Name: "ghost", MaxEngineForceN: 100})
	v, err := New("v1", "red", m, origin, WithClock(clk.now), WithRouter(straightRouter()))
	require.NoError(t, err)
	require.NoError(t, v.DriveTo(context.Background(), Point(kmEast())))
	clk.advance(time.Second)
	require.ErrorIs(t, v.UpdatePosition(), ErrDegenerateModel)
	assert.Equal(t, origin, v.Position())
}

func TestClockGoingBackwardsDoesNotMove(t *testing.T) {
	clk := newClock()
	v, err := New("v1", "red", flatModel(t), origin, WithClock(clk.now), WithRouter(straightRouter()))
	require.NoError(t, err)
	require.NoError(t, v.DriveTo(context.Background(), Point(kmEast())))
	clk.advance(-time.Second)
	require.NoError(t, v.UpdatePosition())
	assert.Zero(t, v.Distance())
	assert.Equal(t, origin, v.Position())
}
