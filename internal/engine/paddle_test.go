package engine

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ocrapi/internal/pixel"
)

func testBuffer() *pixel.Buffer {
	return pixel.FromImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)))
}

func newTestEngine(t *testing.T, handler http.HandlerFunc) *PaddleEngine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	eng, err := NewPaddleEngine(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewPaddleEngine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestPaddleRecognizeServingShape(t *testing.T) {
	eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		var req paddleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Images) != 1 {
			t.Errorf("expected 1 image, got %d", len(req.Images))
		} else if _, err := base64.StdEncoding.DecodeString(req.Images[0]); err != nil {
			t.Errorf("image is not valid base64: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "000", "msg": "",
			"results": [[
				{"text": "hello", "confidence": 0.97,
				 "text_region": [[0,0],[10,0],[10,5],[0,5]]}
			]]
		}`))
	})

	detections, err := eng.Recognize(t.Context(), testBuffer())
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}

	pair, ok := detections[0][1].([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("unexpected pair shape: %v", detections[0][1])
	}
	if pair[0] != "hello" {
		t.Errorf("text = %v, want hello", pair[0])
	}
}

func TestPaddleRecognizeLibraryShape(t *testing.T) {
	eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [[
			[[[0,0],[10,0],[10,5],[0,5]], ["hello", 0.97]],
			[[[0,6],[10,6],[10,9],[0,9]], ["world", 0.88]]
		]]}`))
	})

	detections, err := eng.Recognize(t.Context(), testBuffer())
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(detections))
	}
	if len(detections[0]) != 2 {
		t.Fatalf("unexpected detection shape: %v", detections[0])
	}
}

func TestPaddleRecognizeNullPage(t *testing.T) {
	for name, body := range map[string]string{
		"null page":     `{"status": "000", "results": [null]}`,
		"empty page":    `{"status": "000", "results": [[]]}`,
		"empty results": `{"status": "000", "results": []}`,
		"no results":    `{"status": "000"}`,
	} {
		t.Run(name, func(t *testing.T) {
			eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			detections, err := eng.Recognize(t.Context(), testBuffer())
			if err != nil {
				t.Fatalf("Recognize: %v", err)
			}
			if len(detections) != 0 {
				t.Fatalf("expected no detections, got %v", detections)
			}
		})
	}
}

func TestPaddleRecognizeErrorStatus(t *testing.T) {
	eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "-1", "msg": "model not loaded"}`))
	})

	_, err := eng.Recognize(t.Context(), testBuffer())
	if !errors.Is(err, ErrEngineFailed) {
		t.Fatalf("err = %v, want ErrEngineFailed", err)
	}
}

func TestPaddleRecognizeHTTPError(t *testing.T) {
	eng := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := eng.Recognize(t.Context(), testBuffer())
	if !errors.Is(err, ErrEngineFailed) {
		t.Fatalf("err = %v, want ErrEngineFailed", err)
	}
}

func TestPaddleRequiresEndpoint(t *testing.T) {
	if _, err := NewPaddleEngine(Config{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestNewUnknownEngineType(t *testing.T) {
	_, err := New(t.Context(), Config{Type: "abacus"})
	if !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("err = %v, want ErrUnknownEngine", err)
	}
}
