package models

// OCRResult is a single recognized text region.
type OCRResult struct {
	// Text is the recognized content of the region.
	Text string `json:"text"`

	// Confidence is the engine-reported certainty for Text, conceptually
	// in [0,1]. Values outside that range are passed through unmodified.
	Confidence float64 `json:"confidence"`

	// Box is the bounding polygon as ordered [x, y] pairs. Point order is
	// the engine's; typically four corners starting top-left.
	Box [][]float64 `json:"box"`
}

// OCRResponse is the body of a successful /ocr call. Results keep the
// engine's detection order.
type OCRResponse struct {
	Success          bool        `json:"success"`
	Results          []OCRResult `json:"results"`
	ProcessingTimeMs float64     `json:"processing_time_ms"`
}

// HealthResponse reports service liveness and engine readiness.
type HealthResponse struct {
	Status          string `json:"status"`
	PaddleOCRLoaded bool   `json:"paddleocr_loaded"`
}

// ErrorResponse carries a human-readable failure reason.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
