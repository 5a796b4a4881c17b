package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/calder-instruments/bench-core/internal/infrastructure/config"
	"github.com/calder-instruments/bench-core/internal/infrastructure/logging"
	"github.com/calder-instruments/bench-core/internal/infrastructure/mqtt"
	"github.com/calder-instruments/bench-core/internal/instrument"
	"github.com/calder-instruments/bench-core/internal/poller"
	"github.com/calder-instruments/bench-core/internal/recorder"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ReadingStore serves recorded readings. Satisfied by *recorder.SQLiteStore.
type ReadingStore interface {
	History(ctx context.Context, instrumentID string, limit int) ([]recorder.Reading, error)
	SessionReadings(ctx context.Context, sessionID string) ([]recorder.Reading, error)
}

// PollStats exposes poller counters. Satisfied by *poller.Poller.
type PollStats interface {
	Stats() map[string]poller.TargetStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *instrument.Registry
	Store    ReadingStore       // optional: history endpoints return 503 without it
	Recorder *recorder.Recorder // optional: session endpoint returns 503 without it
	Poller   PollStats          // optional: metrics omit poll counters without it
	MQTT     *mqtt.Client       // optional: metrics report connected=false without it
	DB       *sql.DB            // optional: metrics omit pool stats without it
	Version  string
}

// Server is the HTTP API server for Bench Core.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	registry  *instrument.Registry
	store     ReadingStore
	recorder  *recorder.Recorder
	poller    PollStats
	mqtt      *mqtt.Client
	db        *sql.DB
	version   string
	startTime time.Time
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("instrument registry is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		registry:  deps.Registry,
		store:     deps.Store,
		recorder:  deps.Recorder,
		poller:    deps.Poller,
		mqtt:      deps.MQTT,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; stop it with Close().
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

// HealthCheck verifies the API server is running and responsive.
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
