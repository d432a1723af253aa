package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"qtunnel/internal/app"
)

func TestDefault(t *testing.T) {
	cfg := app.Default()
	if cfg.Algorithm != "ML-KEM-768" {
		t.Fatalf("Algorithm = %q", cfg.Algorithm)
	}
	if !cfg.RequireQuantum {
		t.Fatal("quantum protection must be required by default")
	}
	if cfg.TunnelAddr == "" || cfg.ControlAddr == "" {
		t.Fatal("default addresses missing")
	}
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"tunnel_addr": ":9100",
		"max_connections": 8,
		"handshake_timeout_seconds": 3,
		"log_format": "json"
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := app.Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TunnelAddr != ":9100" || cfg.MaxConnections != 8 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HandshakeTimeout != 3*time.Second {
		t.Fatalf("HandshakeTimeout = %v", cfg.HandshakeTimeout)
	}
	// Untouched fields keep their defaults.
	if cfg.Algorithm != "ML-KEM-768" || !cfg.RequireQuantum {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadFile_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := app.Default()
	if err := cfg.LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
