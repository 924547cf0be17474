package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/roadsim/core/metrics"
	"github.com/kilianp07/roadsim/infra/logger"
)

// InfluxSink writes simulation metrics to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes one fleet_tick point.
func (s *InfluxSink) RecordTick(st coremetrics.TickStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_tick").
		AddTag("component", "simulation").
		AddField("vehicles", st.Vehicles).
		AddField("driving", st.Driving).
		AddField("failed", st.Failed).
		AddField("speed_mean", round3(st.MeanSpeed)).
		AddField("speed_max", round3(st.MaxSpeed)).
		AddField("speed_std", round3(st.StdSpeed)).
		AddField("update_ms", round3(float64(st.Duration)/float64(time.Millisecond))).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTrip writes a trip_event point.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_event").
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("kind", ev.Kind).
		AddField("route_km", round3(ev.RouteLengthKm)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVehicleStates writes one vehicle_state point per vehicle in a
// single request.
func (s *InfluxSink) RecordVehicleStates(states []coremetrics.VehicleState) error {
	if len(states) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(states))
	for _, v := range states {
		points = append(points, write.NewPointWithMeasurement("vehicle_state").
			AddTag("vehicle_id", v.VehicleID).
			AddTag("driving", strconv.FormatBool(v.Driving)).
			AddField("lon", v.Lon).
			AddField("lat", v.Lat).
			AddField("bearing", round3(v.Bearing)).
			AddField("speed", round3(v.Speed)).
			SetTime(v.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
