package config

import "errors"

// APIConfig controls the HTTP control API. Token, when set, guards /api/trips.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	Token   string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

func (c APIConfig) Validate() error {
	if c.Enabled && c.Address == "" {
		return errors.New("api address is required")
	}
	return nil
}
