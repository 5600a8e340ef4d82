package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"ocrapi/internal/config"
	"ocrapi/internal/engine"
	"ocrapi/internal/logger"
	"ocrapi/internal/server"
	"ocrapi/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the OCR HTTP service",
	Long: `Start the HTTP server exposing /ocr, /health and the capability
description at /.

The recognition engine is constructed once during startup. If engine
construction fails the process exits instead of serving traffic that
could only produce per-request engine errors.

Engine selection and tuning come from the environment (see .env.example):
  OCR_ENGINE       paddle (default), tesseract or vision
  PADDLE_ENDPOINT  PaddleOCR serving URL for the paddle engine
  OCR_LANGUAGE     recognition language code
  OCR_ANGLE_CLS    orientation classification for rotated text`,
	Example: `  # Serve with the default PaddleOCR endpoint
  ocrapi serve

  # Serve with a local Tesseract engine on port 9000
  OCR_ENGINE=tesseract PORT=9000 ocrapi serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("engine", cfg.EngineType).
		Str("language", cfg.Language).
		Bool("angle_cls", cfg.DetectOrientation).
		Int("threads", cfg.EngineThreads).
		Msg("Initializing recognition engine")

	eng, err := engine.New(ctx, cfg.GetEngineConfig())
	if err != nil {
		// Fail fast: a process that cannot recognize must not accept
		// traffic.
		return fmt.Errorf("engine initialization failed: %w", err)
	}

	svc := service.New(eng, cfg.OCRConcurrency, cfg.OCRTimeout)
	defer svc.Close()

	log.Info().Msg("Recognition engine initialized")

	return server.New(cfg, svc).Run(ctx)
}
