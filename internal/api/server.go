// Package api provides the HTTP REST API for the PetFeeder backend.
//
// It exposes user registration, device onboarding and control, feed
// schedules, the setup-time WiFi flow, and provisioning progress to the
// mobile app and feeder firmware.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/feederworks/petfeeder-core/internal/feeder"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/provisioning"
	"github.com/feederworks/petfeeder-core/internal/registration"
	"github.com/feederworks/petfeeder-core/internal/wifi"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Logger       *logging.Logger
	Registration *registration.Service
	Controls     *feeder.Controls
	Schedules    *feeder.Schedules
	Wifi         *wifi.Service
	Provisioning *provisioning.Manager
	Version      string
}

// Server is the HTTP API server for the PetFeeder backend.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	logger       *logging.Logger
	registration *registration.Service
	controls     *feeder.Controls
	schedules    *feeder.Schedules
	wifi         *wifi.Service
	provisioning *provisioning.Manager
	version      string
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registration == nil {
		return nil, fmt.Errorf("registration service is required")
	}
	if deps.Controls == nil {
		return nil, fmt.Errorf("feeder controls are required")
	}
	if deps.Schedules == nil {
		return nil, fmt.Errorf("schedule service is required")
	}
	if deps.Wifi == nil {
		return nil, fmt.Errorf("wifi service is required")
	}
	if deps.Provisioning == nil {
		return nil, fmt.Errorf("provisioning manager is required")
	}

	return &Server{
		cfg:          deps.Config,
		logger:       deps.Logger,
		registration: deps.Registration,
		controls:     deps.Controls,
		schedules:    deps.Schedules,
		wifi:         deps.Wifi,
		provisioning: deps.Provisioning,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
