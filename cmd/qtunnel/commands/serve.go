package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"qtunnel/internal/app"
	"qtunnel/internal/logging"
)

// serve runs the hub: tunnel listener plus control surface, until SIGINT or
// SIGTERM.
func serveCmd() *cobra.Command {
	cfg := app.Default()
	var (
		configPath       string
		handshakeTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tunnel hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				// Flags set explicitly on the command line win over the
				// config file; the file only fills in the rest.
				explicit := cfg
				cfg = app.Default()
				if err := cfg.LoadFile(configPath); err != nil {
					return err
				}
				reapply := map[string]func(){
					"tunnel":             func() { cfg.TunnelAddr = explicit.TunnelAddr },
					"control-listen":     func() { cfg.ControlAddr = explicit.ControlAddr },
					"advertise":          func() { cfg.Advertise = explicit.Advertise },
					"algorithm":          func() { cfg.Algorithm = explicit.Algorithm },
					"require-quantum":    func() { cfg.RequireQuantum = explicit.RequireQuantum },
					"max-connections":    func() { cfg.MaxConnections = explicit.MaxConnections },
					"auth-failure-limit": func() { cfg.AuthFailureLimit = explicit.AuthFailureLimit },
					"log-level":          func() { cfg.LogLevel = explicit.LogLevel },
					"log-format":         func() { cfg.LogFormat = explicit.LogFormat },
				}
				for name, apply := range reapply {
					if cmd.Flags().Changed(name) {
						apply()
					}
				}
			}
			if cmd.Flags().Changed("handshake-timeout") || cfg.HandshakeTimeout == 0 {
				cfg.HandshakeTimeout = handshakeTimeout
			}

			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			log := slog.Default()

			wire, err := app.NewWire(cfg, log)
			if err != nil {
				return err
			}
			if err := wire.Hub.Start(); err != nil {
				return err
			}
			defer wire.Hub.Close()

			errCh := make(chan error, 1)
			go func() {
				log.Info("control surface listening", "addr", wire.Control.Addr)
				if err := wire.Control.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-stop:
				log.Info("shutting down", "signal", sig.String())
			case err := <-errCh:
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return wire.Control.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON config file")
	cmd.Flags().StringVar(&cfg.TunnelAddr, "tunnel", cfg.TunnelAddr, "tunnel listen address")
	cmd.Flags().StringVar(&cfg.ControlAddr, "control-listen", cfg.ControlAddr, "control surface listen address")
	cmd.Flags().StringVar(&cfg.Advertise, "advertise", "", "tunnel endpoint advertised to services (default: bound address)")
	cmd.Flags().StringVar(&cfg.Algorithm, "algorithm", cfg.Algorithm, "KEM scheme name")
	cmd.Flags().BoolVar(&cfg.RequireQuantum, "require-quantum", cfg.RequireQuantum, "refuse to start without a post-quantum scheme")
	cmd.Flags().IntVar(&cfg.MaxConnections, "max-connections", 0, "max concurrent tunnel connections (default 64)")
	cmd.Flags().Uint32Var(&cfg.AuthFailureLimit, "auth-failure-limit", 0, "rejected frames before a session is closed (default 5)")
	cmd.Flags().DurationVar(&handshakeTimeout, "handshake-timeout", 10*time.Second, "handshake deadline per connection")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	return cmd
}
