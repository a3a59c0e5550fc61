// Package server implements the HTTP side of jyed: it serves the editor page and the
// JSON API the page drives.
//
// The server holds no session state of its own. The page owns the current
// [session.State] and sends it along with every action to the reducer endpoint,
// which returns the next state. Any number of editors can therefore share a single
// server and requests may be handled in any order.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.followtheprocess.codes/jyed/internal/config"
	"go.followtheprocess.codes/log"
	"golang.org/x/sync/errgroup"
)

//go:embed static/index.html
var static embed.FS

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 5 * time.Second

// Server is the jyed HTTP server.
type Server struct {
	logger  *log.Logger        // Request and lifecycle logs
	page    *template.Template // The editor page
	version string             // Shown in the page footer
	cfg     config.Server      // Server configuration
}

// New returns a new [Server].
func New(cfg config.Server, version string, logger *log.Logger) (*Server, error) {
	page, err := template.ParseFS(static, "static/index.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse editor page template: %w", err)
	}

	return &Server{
		logger:  logger.Prefixed("server"),
		page:    page,
		version: version,
		cfg:     cfg,
	}, nil
}

// Handler returns the [http.Handler] serving every jyed route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/session/reduce", s.handleReduce)
	mux.HandleFunc("POST /api/detect", s.handleDetect)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/convert", s.handleConvert)

	return s.logRequests(s.limitBody(mux))
}

// Serve serves HTTP on listener until ctx is cancelled, at which point the server is
// shut down gracefully, giving in-flight requests up to the configured shutdown
// timeout to complete.
//
// Serve takes ownership of listener and closes it before returning.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Debug("Serving editor", slog.String("addr", listener.Addr().String()))

		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		s.logger.Debug("Shutting down", slog.Duration("timeout", s.cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not shut down cleanly: %w", err)
		}

		return nil
	})

	return group.Wait()
}
