// Package server provides an embeddable HTTP server that wires the
// coordination core (registry, dispatcher, aggregator, coordinator)
// and the REST surface together, mirroring the teacher's
// functional-options constructor and graceful Run/Shutdown lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/config"
	"github.com/distsudoku/master/internal/infrastructure/api/rest"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// Server is the master process: one HTTP listener over the
// coordination core, plus the background maintenance jobs of
// spec.md §4.3/§4.4/§5.
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	router     *gin.Engine
	httpServer *http.Server

	comps *components
}

// New creates a new Server with the given options, loading
// configuration and wiring every collaborator if not overridden.
func New(opts ...Option) (*Server, error) {
	s := &Server{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if s.config == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		s.config = cfg
	}

	if s.logger == nil {
		s.logger = logger.New(logger.Config{
			Level:  s.config.Logging.Level,
			Format: s.config.Logging.Format,
		})
		logger.SetDefault(s.logger)
	}

	comps, err := initComponents(s.config, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	s.comps = comps

	s.router = rest.NewRouter(comps.coordinator, s.logger, comps.db)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Run starts the server and background jobs, blocking until a
// shutdown signal is received.
func (s *Server) Run() error {
	s.logger.Info("starting sudoku coordination master",
		"host", s.config.Server.Host,
		"port", s.config.Server.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.comps.start(ctx)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		s.logger.Info("shutdown initiated", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer shutdownCancel()

		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully stops the HTTP listener and the background
// maintenance jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.comps.stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", "err", err)
		if err := s.httpServer.Close(); err != nil {
			s.logger.Error("server close failed", "err", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router, for adding custom endpoints before Run.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *logger.Logger {
	return s.logger
}

// DB returns the database connection, nil when running with the
// in-memory solution sink.
func (s *Server) DB() *bun.DB {
	return s.comps.db
}

// Coordinator returns the wired Coordinator, for embedding this
// server into a larger process.
func (s *Server) Coordinator() *coordinator.Coordinator {
	return s.comps.coordinator
}

// Dispatcher returns the wired Dispatcher.
func (s *Server) Dispatcher() dispatcher.Dispatcher {
	return s.comps.dispatcher
}

// Aggregator returns the wired Aggregator.
func (s *Server) Aggregator() *aggregator.Aggregator {
	return s.comps.aggregator
}
