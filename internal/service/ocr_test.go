package service

import (
	"context"
	"errors"
	"image"
	"reflect"
	"testing"
	"time"

	"ocrapi/internal/engine"
	"ocrapi/internal/pixel"
)

type fakeEngine struct {
	detections []engine.RawDetection
	err        error
	calls      int
}

func (f *fakeEngine) Recognize(ctx context.Context, buf *pixel.Buffer) ([]engine.RawDetection, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.detections, f.err
}

func (f *fakeEngine) Close() error { return nil }

type blockingEngine struct{}

func (blockingEngine) Recognize(ctx context.Context, buf *pixel.Buffer) ([]engine.RawDetection, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingEngine) Close() error { return nil }

func testBuffer() *pixel.Buffer {
	return pixel.FromImage(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
}

func TestServiceNotReady(t *testing.T) {
	svc := New(nil, 1, 0)
	if svc.Ready() {
		t.Fatal("service without engine reports ready")
	}

	_, err := svc.Recognize(context.Background(), testBuffer())
	if !errors.Is(err, engine.ErrEngineNotReady) {
		t.Fatalf("err = %v, want ErrEngineNotReady", err)
	}
}

func TestServiceReady(t *testing.T) {
	svc := New(&fakeEngine{}, 1, 0)
	if !svc.Ready() {
		t.Fatal("service with engine reports not ready")
	}
}

func TestServiceRecognizeIdempotent(t *testing.T) {
	eng := &fakeEngine{detections: []engine.RawDetection{
		engine.NewRawDetection([][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, "stable", 0.9),
	}}
	svc := New(eng, 1, 0)

	buf := testBuffer()
	first, err := svc.Recognize(context.Background(), buf)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.Recognize(context.Background(), buf)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ across identical calls: %v vs %v", first, second)
	}
	if eng.calls != 2 {
		t.Errorf("engine invoked %d times, want 2", eng.calls)
	}
}

func TestServiceEmptyResultIsNotAnError(t *testing.T) {
	svc := New(&fakeEngine{}, 1, 0)

	detections, err := svc.Recognize(context.Background(), testBuffer())
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(detections) != 0 {
		t.Fatalf("expected no detections, got %v", detections)
	}
}

func TestServiceDeadline(t *testing.T) {
	svc := New(blockingEngine{}, 1, 20*time.Millisecond)

	_, err := svc.Recognize(context.Background(), testBuffer())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestServiceEngineError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&fakeEngine{err: boom}, 1, 0)

	_, err := svc.Recognize(context.Background(), testBuffer())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}
