// Package engine abstracts the optical-character-recognition capability
// behind a narrow interface.
//
// An Engine is constructed once per process with a fixed configuration;
// construction may be expensive (model loading, credential exchange) and
// must not be repeated per request. The engine's native output is kept
// deliberately loose: implementations differ on the exact shape of a
// detection, and the normalization layer is the single place that
// coerces it into the strict response schema.
//
// Supported engine types:
//   - "paddle": a PaddleOCR serving endpoint reached over HTTP (default)
//   - "tesseract": a local Tesseract handle via gosseract
//   - "vision": Google Cloud Vision text detection
package engine

import (
	"context"
	"fmt"
	"time"

	"ocrapi/internal/pixel"
)

// RawDetection is one engine-native detection in the loose
// [box, [text, confidence]] shape: element 0 is a bounding polygon
// (ordered [x, y] points), element 1 is the (text, confidence) pair.
// Elements stay untyped because engines disagree on exact encoding;
// result.Normalize performs the coercion.
type RawDetection []any

// NewRawDetection builds a well-formed detection from typed parts.
// Adapters that produce structured output use it to emit the common
// loose shape.
func NewRawDetection(box [][]float64, text string, confidence float64) RawDetection {
	return RawDetection{box, []any{text, confidence}}
}

// Engine is the recognition capability. Recognize runs detection on a
// decoded pixel buffer and returns the engine's detections in engine
// order. An empty slice is a legitimate result (no text found), never
// an error. Implementations are safe for sequential use; concurrent
// access is serialized by the owning service.
type Engine interface {
	Recognize(ctx context.Context, buf *pixel.Buffer) ([]RawDetection, error)
	Close() error
}

// Config is the construction-time engine configuration. It is fixed for
// the process lifetime.
type Config struct {
	// Type selects the implementation: paddle, tesseract or vision.
	Type string

	// Language is the recognition language code (engine-specific
	// vocabulary, e.g. "en" for paddle, "eng" for tesseract).
	Language string

	// DetectOrientation enables angle/orientation classification so
	// rotated text is recognized.
	DetectOrientation bool

	// UseGPU selects GPU execution. This deployment runs CPU-only.
	UseGPU bool

	// Threads caps the engine's internal parallelism. Kept at 1 for
	// deterministic output in constrained environments.
	Threads int

	// Accelerate enables math-kernel acceleration (mkldnn and friends)
	// where the engine supports it.
	Accelerate bool

	// Endpoint is the serving URL for the paddle engine.
	Endpoint string

	// Timeout bounds a single remote recognition call.
	Timeout time.Duration
}

// New constructs the configured engine. Construction failure is fatal
// to the caller's startup sequence; there is no lazy retry.
func New(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Type {
	case "paddle", "":
		return NewPaddleEngine(cfg)
	case "tesseract":
		return NewTesseractEngine(cfg)
	case "vision":
		return NewVisionEngine(ctx, cfg)
	default:
		return nil, NewError("New", ErrUnknownEngine, fmt.Sprintf("type %q", cfg.Type))
	}
}
