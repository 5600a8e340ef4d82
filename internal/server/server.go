// Package server exposes the OCR pipeline over HTTP: upload validation,
// decode, recognition, normalization and health reporting.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"ocrapi/internal/config"
	"ocrapi/internal/logger"
	"ocrapi/internal/service"
)

// Version is the capability version reported by the root endpoint.
const Version = "1.0.0"

// Server wires the shared OCR service into the HTTP surface. It is
// constructed once at startup and passed its collaborators explicitly;
// no package-level state is involved.
type Server struct {
	cfg *config.Config
	svc *service.OCRService
	log zerolog.Logger

	requestSem *semaphore.Weighted

	// per-IP rate limiters
	limiters sync.Map
}

// New builds a Server around an initialized OCR service.
func New(cfg *config.Config, svc *service.OCRService) *Server {
	return &Server{
		cfg:        cfg,
		svc:        svc,
		log:        logger.WithComponent("server"),
		requestSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
	}
}

// Handler assembles the route table with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ocr",
		s.withMethod(http.MethodPost,
			s.withRateLimit(
				s.withConcurrencyLimit(s.handleOCR))))
	mux.HandleFunc("/", s.handleRoot)

	return s.withLogging(s.withRecovery(s.withCORS(mux)))
}

// Run serves until ctx is canceled, then drains connections within the
// configured shutdown window.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.Info().
		Str("addr", srv.Addr).
		Str("engine", s.cfg.EngineType).
		Int64("max_concurrent", s.cfg.MaxConcurrentRequests).
		Msg("OCR API listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.log.Info().Msg("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
