package simulation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/roadsim/core/clock"
	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/metrics"
	"github.com/kilianp07/roadsim/core/model"
	"github.com/kilianp07/roadsim/core/route"
	"github.com/kilianp07/roadsim/core/triplog"
	"github.com/kilianp07/roadsim/core/vehicle"
)

type recordingRenderer struct {
	mu        sync.Mutex
	snapshots []fleet.Snapshot
	routes    [][]fleet.RouteView
	err       error
}

func (r *recordingRenderer) SetVehicles(s fleet.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return r.err
}

func (r *recordingRenderer) SetRoutes(v []fleet.RouteView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, v)
	return r.err
}

func (r *recordingRenderer) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots), len(r.routes)
}

type recordingSink struct {
	mu     sync.Mutex
	ticks  []metrics.TickStats
	trips  []metrics.TripEvent
	states int
}

func (s *recordingSink) RecordTick(st metrics.TickStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks = append(s.ticks, st)
	return nil
}

func (s *recordingSink) RecordTrip(ev metrics.TripEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append(s.trips, ev)
	return nil
}

func (s *recordingSink) RecordVehicleStates([]metrics.VehicleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states++
	return nil
}

type memStore struct {
	mu   sync.Mutex
	recs []triplog.Record
}

func (m *memStore) Append(_ context.Context, r triplog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
	return nil
}
func (m *memStore) Query(context.Context, triplog.Query) ([]triplog.Record, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

var rodez = orb.Point{2.5755, 44.3506}

func testModel(t *testing.T) *model.VehicleModel {
	t.Helper()
	m, err := model.New(model.Spec{Name: "Clio", MassKg: 1000, LengthM: 4, WidthM: 1.7, HeightM: 1.4, MaxEngineForceN: 3000, MaxBrakeForceN: 6000})
	require.NoError(t, err)
	return m
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRunRendersEveryTick(t *testing.T) {
	clk, err := clock.New(50)
	require.NoError(t, err)
	col := fleet.New(fleet.WithVehicleOptions(vehicle.WithRouter(route.DirectRouter{Segments: 2})))
	_, err = col.Create("veh0001", "red", testModel(t), vehicle.Point(rodez))
	require.NoError(t, err)

	r := &recordingRenderer{}
	sink := &recordingSink{}
	sim := New(clk, col, WithRenderer(r), WithMetrics(sink))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	require.NoError(t, sim.Start())
	require.ErrorIs(t, sim.Start(), clock.ErrAlreadyRunning)
	eventually(t, func() bool { n, _ := r.counts(); return n >= 3 }, "no snapshots rendered")
	require.NoError(t, sim.Stop())
	require.ErrorIs(t, sim.Stop(), clock.ErrNotRunning)

	time.Sleep(50 * time.Millisecond)
	stopped, _ := r.counts()
	time.Sleep(100 * time.Millisecond)
	after, _ := r.counts()
	assert.Equal(t, stopped, after, "render after stop")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.ticks)
	assert.Equal(t, 1, sink.ticks[0].Vehicles)
	assert.Zero(t, sink.ticks[0].Driving)
	assert.Equal(t, len(sink.ticks), sink.states)
}

func TestTripEventsRefreshRoutesAndLog(t *testing.T) {
	clk, err := clock.New(20)
	require.NoError(t, err)
	col := fleet.New(fleet.WithVehicleOptions(vehicle.WithRouter(route.DirectRouter{})))
	v, err := col.Create("veh0001", "red", testModel(t), vehicle.Point(rodez))
	require.NoError(t, err)

	r := &recordingRenderer{err: errors.New("display gone")}
	sink := &recordingSink{}
	store := &memStore{}
	var mu sync.Mutex
	var handled []vehicle.EventKind
	sim := New(clk, col,
		WithRenderer(r),
		WithMetrics(sink),
		WithTripLog(store),
		WithEventHandler(func(_ context.Context, e vehicle.Event) {
			mu.Lock()
			handled = append(handled, e.Kind)
			mu.Unlock()
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	// zero length trip: arrives on the first tick
	require.NoError(t, v.DriveTo(ctx, vehicle.Point(rodez)))
	require.NoError(t, sim.Start())

	eventually(t, func() bool { return store.len() == 2 }, "trip events not logged")
	eventually(t, func() bool { _, n := r.counts(); return n == 2 }, "routes not rendered")
	eventually(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(handled) == 2 }, "handler not called")
	assert.False(t, v.Driving())

	r.mu.Lock()
	assert.Len(t, r.routes[0], 1)
	assert.Empty(t, r.routes[1])
	r.mu.Unlock()

	sink.mu.Lock()
	require.Len(t, sink.trips, 2)
	assert.Equal(t, string(vehicle.EventRouteAcquired), sink.trips[0].Kind)
	assert.Equal(t, string(vehicle.EventArrived), sink.trips[1].Kind)
	sink.mu.Unlock()

	cancel()
	<-done
	assert.False(t, clk.Running())
}

func TestRunEndsWhenClockCloses(t *testing.T) {
	clk, _ := clock.New(10)
	sim := New(clk, fleet.New())
	done := make(chan error, 1)
	go func() { done <- sim.Run(context.Background()) }()
	clk.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestTickStats(t *testing.T) {
	now := time.Now()
	snap := fleet.Snapshot{
		Time: now,
		Vehicles: []vehicle.View{
			{ID: "a", Speed: 2, Driving: true},
			{ID: "b", Speed: 4, Driving: true},
			{ID: "c", Speed: 9, Driving: false},
		},
		Failed:   1,
		Duration: time.Millisecond,
	}
	st := TickStats(snap)
	assert.Equal(t, 3, st.Vehicles)
	assert.Equal(t, 2, st.Driving)
	assert.Equal(t, 1, st.Failed)
	assert.InDelta(t, 3, st.MeanSpeed, 1e-12)
	assert.InDelta(t, 4, st.MaxSpeed, 1e-12)
	assert.InDelta(t, math.Sqrt2, st.StdSpeed, 1e-12)
	assert.Equal(t, now, st.Time)

	one := TickStats(fleet.Snapshot{Vehicles: []vehicle.View{{Speed: 5, Driving: true}}})
	assert.Equal(t, 5.0, one.MeanSpeed)
	assert.Zero(t, one.StdSpeed)

	assert.Zero(t, TickStats(fleet.Snapshot{}).MeanSpeed)
}

func TestMultiRenderer(t *testing.T) {
	a, b := &recordingRenderer{}, &recordingRenderer{err: errors.New("boom")}
	m := MultiRenderer{a, b, NopRenderer{}}
	require.Error(t, m.SetVehicles(fleet.Snapshot{}))
	require.Error(t, m.SetRoutes(nil))
	na, ra := a.counts()
	nb, rb := b.counts()
	assert.Equal(t, []int{1, 1, 1, 1}, []int{na, ra, nb, rb})
}
