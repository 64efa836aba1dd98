package server

import (
	"github.com/distsudoku/master/internal/config"
	"github.com/distsudoku/master/internal/infrastructure/logger"
)

// Option is a functional option for configuring the Server.
type Option func(*Server) error

// WithConfig sets the server configuration, skipping config.Load.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) error {
		s.logger = l
		return nil
	}
}
