package mqtt

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/vehicle"
	"github.com/kilianp07/roadsim/infra/render"
	"github.com/kilianp07/roadsim/internal/testutil"
)

func TestRendererWithMosquitto(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, err := testutil.StartBroker(ctx, "")
	if err != nil {
		t.Skipf("mosquitto: %v", err)
	}
	defer broker.Close()

	vehicles, err := broker.Subscribe(VehiclesTopic, 1)
	if err != nil {
		t.Fatalf("subscribe vehicles: %v", err)
	}
	defer vehicles.Close()
	status, err := broker.Subscribe("status", 4)
	if err != nil {
		t.Fatalf("subscribe status: %v", err)
	}
	defer status.Close()

	cfg := Config{Enabled: true, Broker: broker.URL, ClientID: "roadsim-it", TopicPrefix: broker.TopicPrefix, QoS: 1}
	cfg.SetDefaults()
	if cfg.LWTTopic != broker.StatusTopic() {
		t.Fatalf("status topic %q, broker expects %q", cfg.LWTTopic, broker.StatusTopic())
	}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	r := NewRenderer(cli, cfg.TopicPrefix)
	defer r.Close()

	online, err := status.Next()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if string(online) != "online" {
		t.Fatalf("expected online status, got %q", online)
	}

	snap := fleet.Snapshot{Time: time.Now(), Vehicles: []vehicle.View{{ID: "veh0001", Color: "red", Position: orb.Point{2.57, 44.35}}}}
	if err := r.SetVehicles(snap); err != nil {
		t.Fatalf("set vehicles: %v", err)
	}

	payload, err := vehicles.Next()
	if err != nil {
		t.Fatalf("vehicles: %v", err)
	}
	var msg render.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Kind != render.KindVehicles || len(msg.Data.Features) != 1 {
		t.Fatalf("unexpected message: %s", payload)
	}
}
