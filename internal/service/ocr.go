// Package service owns the process-wide recognition capability: one
// engine handle constructed at startup and shared by every request.
package service

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"ocrapi/internal/engine"
	"ocrapi/internal/pixel"
)

// OCRService wraps the single engine handle. The engine is configured
// for single-threaded internal execution, so concurrent recognition is
// serialized through a weighted semaphore rather than run in parallel;
// sizing the semaphore above 1 (or swapping in a pool of handles) is a
// deployment decision, not a code change elsewhere.
type OCRService struct {
	eng     engine.Engine
	sem     *semaphore.Weighted
	timeout time.Duration
}

// New builds the service around an engine handle. concurrency caps
// simultaneous engine calls (minimum 1); timeout bounds each call, 0
// disables the deadline.
func New(eng engine.Engine, concurrency int64, timeout time.Duration) *OCRService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &OCRService{
		eng:     eng,
		sem:     semaphore.NewWeighted(concurrency),
		timeout: timeout,
	}
}

// Ready reports whether an engine handle was successfully constructed.
// It performs no recognition work and no I/O.
func (s *OCRService) Ready() bool {
	return s != nil && s.eng != nil
}

// Recognize runs detection on the buffer, holding an engine slot for
// the duration of the call only. It fails with engine.ErrEngineNotReady
// when no handle exists. An empty detection list is a valid outcome.
func (s *OCRService) Recognize(ctx context.Context, buf *pixel.Buffer) ([]engine.RawDetection, error) {
	const op = "Recognize"

	if !s.Ready() {
		return nil, engine.NewError(op, engine.ErrEngineNotReady, "")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, engine.WrapError(op, err, "waiting for engine slot")
	}
	defer s.sem.Release(1)

	return s.eng.Recognize(ctx, buf)
}

// Close releases the engine handle.
func (s *OCRService) Close() error {
	if s == nil || s.eng == nil {
		return nil
	}
	return s.eng.Close()
}
