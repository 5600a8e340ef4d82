package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"ocrapi/internal/pixel"
	"ocrapi/internal/result"
	"ocrapi/pkg/models"
)

// multipartOverhead is headroom on top of the upload bound for
// multipart framing, so the exact size check stays in pixel.Validate.
const multipartOverhead = 1 << 20

// handleOCR runs the request pipeline: validate, decode, recognize,
// normalize, respond. processing_time_ms covers decode through
// normalize; receiving the upload is excluded.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErr(w, http.StatusBadRequest, "file too large")
			return
		}
		writeErr(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	// Extension and size bounds are checked from the part header before
	// the content is read.
	if err := pixel.Validate(header.Filename, header.Size, s.cfg.MaxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	s.log.Info().
		Str("file", header.Filename).
		Int("size", len(data)).
		Msg("Processing upload")

	start := time.Now()

	buf, err := pixel.Decode(data)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := s.svc.Recognize(r.Context(), buf)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("file", header.Filename).
			Msg("OCR processing error")
		writeErr(w, http.StatusInternalServerError, "OCR processing failed: "+err.Error())
		return
	}

	results := result.Normalize(raw)
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)

	s.log.Info().
		Int("regions", len(results)).
		Float64("elapsed_ms", elapsed).
		Msg("OCR completed")

	writeJSON(w, http.StatusOK, models.OCRResponse{
		Success:          true,
		Results:          results,
		ProcessingTimeMs: elapsed,
	})
}

// handleHealth reports liveness and engine readiness. It reads a flag
// only; no recognition work happens here.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:          "healthy",
		PaddleOCRLoaded: s.svc.Ready(),
	})
}

// handleRoot returns the static capability description.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "OCR API",
		"version": Version,
		"endpoints": map[string]string{
			"health": "/health",
			"ocr":    "/ocr (POST with multipart/form-data)",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}
