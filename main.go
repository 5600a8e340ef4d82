package main

import (
	stdlog "log"

	"github.com/joho/godotenv"
	"ocrapi/cmd"
	"ocrapi/internal/config"
	"ocrapi/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	// Initialize logging before anything else touches the logger. A
	// broken configuration falls back to defaults so startup errors are
	// still reported through the structured logger.
	if cfg, err := config.Load(); err != nil {
		stdlog.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			stdlog.Fatalf("Failed to initialize logger: %v", err)
		}
	} else if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
