package app

import (
	"log/slog"
	"net/http"

	"qtunnel/internal/control"
	"qtunnel/internal/hub"
)

// Wire bundles the hub and its control surface for the serve command.
type Wire struct {
	Hub     *hub.Hub
	Control *http.Server
}

// NewWire constructs the dependency graph from cfg. The hub's keypair is
// generated here, once per process.
func NewWire(cfg Config, log *slog.Logger) (*Wire, error) {
	if log == nil {
		log = slog.Default()
	}

	h, err := hub.New(hub.Config{
		TunnelAddr:       cfg.TunnelAddr,
		Advertise:        cfg.Advertise,
		Algorithm:        cfg.Algorithm,
		RequireQuantum:   cfg.RequireQuantum,
		MaxConnections:   cfg.MaxConnections,
		MaxFrameBytes:    cfg.MaxFrameBytes,
		HandshakeTimeout: cfg.HandshakeTimeout,
		AuthFailureLimit: cfg.AuthFailureLimit,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}

	ctl := control.NewServer(h, log)
	return &Wire{
		Hub: h,
		Control: &http.Server{
			Addr:    cfg.ControlAddr,
			Handler: ctl.Handler(),
		},
	}, nil
}
