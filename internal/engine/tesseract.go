package engine

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"ocrapi/internal/pixel"
)

// TesseractEngine runs recognition locally through a long-lived
// gosseract client. Language data is loaded once at construction; the
// client is not goroutine-safe, so calls are serialized internally in
// addition to the service-level gating.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine constructs and configures the Tesseract handle.
func NewTesseractEngine(cfg Config) (*TesseractEngine, error) {
	const op = "NewTesseractEngine"

	if cfg.Threads > 0 {
		// Tesseract parallelizes via OpenMP; the limit must be in place
		// before the first client touches the library.
		os.Setenv("OMP_THREAD_LIMIT", strconv.Itoa(cfg.Threads))
	}

	client := gosseract.NewClient()

	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, WrapError(op, err, fmt.Sprintf("language %q", lang))
	}

	psm := gosseract.PSM_AUTO
	if cfg.DetectOrientation {
		psm = gosseract.PSM_AUTO_OSD
	}
	if err := client.SetPageSegMode(psm); err != nil {
		client.Close()
		return nil, WrapError(op, err, "page segmentation mode")
	}

	return &TesseractEngine{client: client}, nil
}

// Recognize runs line-level detection on the buffer. Tesseract reports
// axis-aligned rectangles and 0-100 confidences; both are mapped to the
// common loose shape (4-point polygon, [0,1] confidence).
func (t *TesseractEngine) Recognize(ctx context.Context, buf *pixel.Buffer) ([]RawDetection, error) {
	const op = "Recognize"

	if err := ctx.Err(); err != nil {
		return nil, WrapError(op, err, "")
	}

	encoded, err := buf.EncodePNG()
	if err != nil {
		return nil, WrapError(op, err, "serialize pixel buffer")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(encoded); err != nil {
		return nil, WrapError(op, ErrEngineFailed, fmt.Sprintf("set image: %v", err))
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, WrapError(op, ErrEngineFailed, fmt.Sprintf("detect: %v", err))
	}

	detections := make([]RawDetection, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}

		x0, y0 := float64(b.Box.Min.X), float64(b.Box.Min.Y)
		x1, y1 := float64(b.Box.Max.X), float64(b.Box.Max.Y)
		poly := [][]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}

		detections = append(detections, NewRawDetection(poly, text, b.Confidence/100))
	}
	return detections, nil
}

// Close releases the Tesseract handle.
func (t *TesseractEngine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
