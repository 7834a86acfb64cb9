// Command server serves the downloaded story library over HTTP so saved
// narration and music can be played from a browser on the local network.
package main

import (
	"log"
	"os"

	"github.com/alkime/moodtales/internal/config"
	"github.com/alkime/moodtales/internal/logger"
	"github.com/alkime/moodtales/internal/server"
	"github.com/alkime/moodtales/internal/workdir"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	lg := logger.SetupLogger(cfg, os.Stdout)

	library, err := workdir.LibraryPath(cfg.LibraryDir)
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}
	if err := workdir.Prep(library); err != nil {
		log.Fatalf("Fatal: %v", err)
	}

	// Log startup information
	lg.Info("Starting moodtales library server",
		"env", cfg.Env,
		"port", cfg.Port,
		"library", library,
	)

	srv := server.New(cfg, nil, library, lg)
	if err := server.Run(srv); err != nil {
		lg.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
