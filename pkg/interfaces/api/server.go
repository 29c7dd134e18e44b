package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vsinha/replenish/pkg/application/services/planning"
	"github.com/vsinha/replenish/pkg/infrastructure/config"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/csv"
)

// RunHeader carries the planning run id of a response
const RunHeader = "X-Plan-Run"

const shutdownTimeout = 5 * time.Second

// Server exposes the planning pipelines over HTTP. Every request plans against the history
// table in its body, with the server settings as defaults for query overrides.
type Server struct {
	settings   config.Settings
	logger     zerolog.Logger
	loader     *csv.Loader
	eventStore events.EventStore
	options    []planning.Option
}

// ServerOption customises a Server
type ServerOption func(*Server)

// WithEventStore publishes the events of every request's run to store
func WithEventStore(store events.EventStore) ServerOption {
	return func(s *Server) {
		s.eventStore = store
	}
}

// WithPlanningOptions passes extra options to every planning service the server creates
func WithPlanningOptions(opts ...planning.Option) ServerOption {
	return func(s *Server) {
		s.options = append(s.options, opts...)
	}
}

// NewServer creates a server planning with the given default settings
func NewServer(settings *config.Settings, logger zerolog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		settings: *settings,
		logger:   logger.With().Str("component", "api").Logger(),
		loader:   csv.NewLoader(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(s.logger))
	router.Use(Recovery(s.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	plans := router.Group("/api/v1/plans")
	{
		plans.POST("/restock", s.planRestock)
		plans.POST("/transfers", s.planTransfers)
	}

	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
