package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds runtime wiring options for the hub process.
type Config struct {
	TunnelAddr  string `json:"tunnel_addr"`  // tunnel listener, e.g. ":9000"
	ControlAddr string `json:"control_addr"` // control surface, e.g. ":8080"
	Advertise   string `json:"advertise"`    // endpoint reported to services

	Algorithm      string `json:"algorithm"`
	RequireQuantum bool   `json:"require_quantum"`

	MaxConnections   int    `json:"max_connections"`
	MaxFrameBytes    uint32 `json:"max_frame_bytes"`
	AuthFailureLimit uint32 `json:"auth_failure_limit"`

	HandshakeTimeout time.Duration `json:"-"`
	// HandshakeTimeoutSeconds is the config-file form of HandshakeTimeout.
	HandshakeTimeoutSeconds int `json:"handshake_timeout_seconds"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		TunnelAddr:  ":9000",
		ControlAddr: ":8080",
		Algorithm:   "ML-KEM-768",
		// The hub claims quantum protection, so by default it must
		// actually provide it.
		RequireQuantum: true,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// LoadFile merges a JSON config file over c. Fields absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.HandshakeTimeoutSeconds > 0 {
		c.HandshakeTimeout = time.Duration(c.HandshakeTimeoutSeconds) * time.Second
	}
	return nil
}
