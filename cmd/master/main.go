package main

import (
	"flag"
	"os"

	"github.com/distsudoku/master/internal/config"
	"github.com/distsudoku/master/internal/infrastructure/logger"
	"github.com/distsudoku/master/pkg/server"
)

func main() {
	var port = flag.Int("port", 0, "HTTP port (overrides SERVER_PORT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.SetDefault(log)

	srv, err := server.New(server.WithConfig(cfg), server.WithLogger(log))
	if err != nil {
		log.Error("failed to initialize server", "err", err)
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}
