package main

import (
	"fmt"
	"os"

	"github.com/trailway/trailway/internal/config"
	"github.com/trailway/trailway/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg.Server)
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"features_dir", cfg.Features.Dir,
		"watch", cfg.Features.Watch)

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.run(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
