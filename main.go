package main

import (
	"log"
	"os"

	"factures/cmd"
	"factures/internal/config"
	"factures/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration, using defaults: %v", err)
		cfg = config.Default()
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Log application startup
	log := logger.WithComponent("main")
	log.Info().Msg("Starting Factures CLI application")

	// Execute CLI commands
	cmd.Execute(cfg)

	// Log application shutdown
	log.Info().Msg("Factures CLI application shutdown")
	os.Exit(0)
}
