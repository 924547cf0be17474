package metrics_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kilianp07/roadsim/core/factory"
	metrics "github.com/kilianp07/roadsim/core/metrics"
)

type countingSink struct {
	label string
	ticks int
}

func (c *countingSink) RecordTick(metrics.TickStats) error { c.ticks++; return nil }

func init() {
	_ = metrics.RegisterMetricsSink("counting", func(conf map[string]any) (metrics.MetricsSink, error) {
		var c struct {
			Label string `json:"label"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Label == "" {
			return nil, errors.New("label required")
		}
		return &countingSink{label: c.Label}, nil
	})
}

/*
TestNewMetricsSink validates NewMetricsSink with zero, one and several configs.
Cases:
  - no config -> NopSink
  - one config -> the sink itself
  - two configs -> MultiSink with two sub-sinks
  - unknown type or bad conf -> error
*/
func TestNewMetricsSink(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "counting", Conf: map[string]any{"label": "a"}}})
	if err != nil {
		t.Fatalf("create single: %v", err)
	}
	if c, ok := s.(*countingSink); !ok || c.label != "a" {
		t.Fatalf("unexpected sink %#v", s)
	}

	var cfg metrics.Config
	data := `{"sinks":[{"type":"counting","conf":{"label":"a"}},{"type":"counting","conf":{"label":"b"}}],"prometheus_address":":9090"}`
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	s, err = metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 || cfg.PrometheusAddress != ":9090" {
		t.Fatalf("unexpected config %#v", cfg)
	}

	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "counting"}, {Type: "counting"}}); err == nil {
		t.Fatal("expected error for invalid conf")
	}
}

type closingSink struct{ closed bool }

func (c *closingSink) RecordTick(metrics.TickStats) error { return nil }
func (c *closingSink) Close()                             { c.closed = true }

func TestNewMetricsSinkClosesOnError(t *testing.T) {
	built := &closingSink{}
	_ = metrics.RegisterMetricsSink("closing", func(map[string]any) (metrics.MetricsSink, error) {
		return built, nil
	})
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "closing"}, {Type: "missing"}})
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if !built.closed {
		t.Fatal("sink built before the failure was not closed")
	}
	found := false
	for _, n := range metrics.SinkTypes() {
		if n == "closing" {
			found = true
		}
	}
	if !found {
		t.Fatalf("closing not listed in %v", metrics.SinkTypes())
	}
}
