package config

import (
	"github.com/kilianp07/roadsim/infra/mqtt"
	"github.com/kilianp07/roadsim/infra/websocket"
)

// RendererConfig lists the snapshot outputs. Log writes a debug summary per tick.
type RendererConfig struct {
	Log       bool             `json:"log"`
	MQTT      mqtt.Config      `json:"mqtt"`
	WebSocket websocket.Config `json:"websocket"`
}

func (c *RendererConfig) SetDefaults() {
	c.MQTT.SetDefaults()
	c.WebSocket.SetDefaults()
}

func (c RendererConfig) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return c.WebSocket.Validate()
}
