package metrics

import "github.com/kilianp07/roadsim/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddress enables the /metrics endpoint when set, e.g. ":9090".
	PrometheusAddress string `json:"prometheus_address" yaml:"prometheus_address"`
}
