// Package result converts loosely-typed engine detections into the
// strict response schema.
//
// Engines emit semi-structured payloads whose entries are not
// guaranteed to conform: a line may miss its (text, confidence) pair,
// carry a confidence in an unexpected encoding, or have a mangled
// polygon. Partial results beat total failure, so every entry passes
// through a single fallible conversion that yields either a typed
// result or a discard — normalization itself never fails a request.
package result

import (
	"encoding/json"
	"strconv"

	"ocrapi/internal/engine"
	"ocrapi/pkg/models"
)

// Normalize converts raw detections into typed results, preserving the
// engine's order. Malformed entries are silently dropped. No
// deduplication, sorting or confidence thresholding is applied;
// out-of-range confidences and short polygons pass through unmodified.
func Normalize(raw []engine.RawDetection) []models.OCRResult {
	results := make([]models.OCRResult, 0, len(raw))
	for _, det := range raw {
		if r, ok := coerceDetection(det); ok {
			results = append(results, r)
		}
	}
	return results
}

// coerceDetection maps one [box, [text, confidence]] entry onto the
// schema. Any missing or un-coercible element discards the entry.
func coerceDetection(det engine.RawDetection) (models.OCRResult, bool) {
	if len(det) < 2 {
		return models.OCRResult{}, false
	}

	box, ok := coerceBox(det[0])
	if !ok {
		return models.OCRResult{}, false
	}

	pair, ok := coercePair(det[1])
	if !ok || len(pair) < 2 {
		return models.OCRResult{}, false
	}

	text, ok := pair[0].(string)
	if !ok {
		return models.OCRResult{}, false
	}

	confidence, ok := coerceFloat(pair[1])
	if !ok {
		return models.OCRResult{}, false
	}

	return models.OCRResult{Text: text, Confidence: confidence, Box: box}, true
}

func coercePair(v any) ([]any, bool) {
	switch p := v.(type) {
	case []any:
		return p, true
	default:
		return nil, false
	}
}

func coerceBox(v any) ([][]float64, bool) {
	switch b := v.(type) {
	case [][]float64:
		return b, true
	case []any:
		box := make([][]float64, 0, len(b))
		for _, pt := range b {
			point, ok := coercePoint(pt)
			if !ok {
				return nil, false
			}
			box = append(box, point)
		}
		return box, true
	default:
		return nil, false
	}
}

func coercePoint(v any) ([]float64, bool) {
	switch p := v.(type) {
	case []float64:
		return p, true
	case []any:
		point := make([]float64, 0, len(p))
		for _, c := range p {
			f, ok := coerceFloat(c)
			if !ok {
				return nil, false
			}
			point = append(point, f)
		}
		return point, true
	default:
		return nil, false
	}
}

// coerceFloat accepts the numeric encodings engines actually produce:
// native floats and ints, json.Number from loose decoding, and numeric
// strings.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
