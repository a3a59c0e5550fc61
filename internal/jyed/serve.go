package jyed

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"go.followtheprocess.codes/jyed/internal/config"
	"go.followtheprocess.codes/jyed/internal/server"
	"go.followtheprocess.codes/msg"
)

// ServeOptions are the options passed to the serve subcommand.
type ServeOptions struct {
	// Config is the path to a TOML config file, empty means use the defaults.
	Config string

	// Addr overrides the listen address from the config.
	Addr string

	// Debug enables debug logging.
	Debug bool
}

// Resolve returns the server configuration: the defaults, overlaid with the config
// file if there is one, overlaid with any flags.
func (s ServeOptions) Resolve() (config.Config, error) {
	cfg := config.Default()

	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return config.Config{}, err
		}

		cfg = loaded
	}

	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	if s.Debug {
		cfg.Log.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// Serve implements the serve subcommand, running the editor until ctx is cancelled.
func (a App) Serve(ctx context.Context, options ServeOptions) error {
	cfg, err := options.Resolve()
	if err != nil {
		return err
	}

	logger := a.logger
	if cfg.Log.Debug && !a.debug {
		logger = newLogger(true, a.stderr)
	}

	logger.Debug("Server configuration", slog.String("config", fmt.Sprintf("%+v", cfg)))

	srv, err := server.New(cfg.Server, a.version, logger)
	if err != nil {
		return err
	}

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", cfg.Server.Addr, err)
	}

	msg.Finfo(a.stdout, "Editor running at %s", pathStyle.Text("http://"+listener.Addr().String()))

	return srv.Serve(ctx, listener)
}
