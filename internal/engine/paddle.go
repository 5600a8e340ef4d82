package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ocrapi/internal/pixel"
)

// paddleStatusOK is the success status code of a PaddleOCR serving
// reply. Deployments that omit the field are treated as successful.
const paddleStatusOK = "000"

// PaddleEngine delegates recognition to a PaddleOCR serving endpoint
// over HTTP. The serving deployment owns the model configuration
// (language, angle classification, thread count, mkldnn); Config is the
// contract this process expects that deployment to match.
type PaddleEngine struct {
	endpoint string
	client   *http.Client
}

// NewPaddleEngine builds the HTTP client for the configured endpoint.
func NewPaddleEngine(cfg Config) (*PaddleEngine, error) {
	if cfg.Endpoint == "" {
		return nil, NewError("NewPaddleEngine", ErrEngineFailed, "endpoint not configured")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &PaddleEngine{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}, nil
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleReply struct {
	Status  string            `json:"status"`
	Msg     string            `json:"msg"`
	Results []json.RawMessage `json:"results"`
}

// Recognize posts the buffer as a base64 PNG and tolerantly parses the
// reply. PaddleOCR deployments answer in two shapes per detection line:
// the library form [box, [text, confidence]] and the serving form
// {"text": ..., "confidence": ..., "text_region": [...]}. Both are
// mapped to RawDetection; a null or absent page means zero detections.
func (p *PaddleEngine) Recognize(ctx context.Context, buf *pixel.Buffer) ([]RawDetection, error) {
	const op = "Recognize"

	encoded, err := buf.EncodePNG()
	if err != nil {
		return nil, WrapError(op, err, "serialize pixel buffer")
	}

	body, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(encoded)},
	})
	if err != nil {
		return nil, WrapError(op, err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(op, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, WrapError(op, ErrEngineFailed, fmt.Sprintf("endpoint unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(op, ErrEngineFailed, fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, WrapError(op, err, "read reply")
	}

	var reply paddleReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, NewError(op, ErrEngineFailed, fmt.Sprintf("malformed reply: %v", err))
	}
	if reply.Status != "" && reply.Status != paddleStatusOK {
		return nil, NewError(op, ErrEngineFailed, fmt.Sprintf("status %s: %s", reply.Status, reply.Msg))
	}

	// One page per submitted image; no page means no text.
	if len(reply.Results) == 0 {
		return nil, nil
	}
	return parsePaddlePage(reply.Results[0])
}

// parsePaddlePage converts one page of serving output into raw
// detections, preserving line order. Unrecognized line shapes are kept
// loose and left to the normalizer to drop.
func parsePaddlePage(page json.RawMessage) ([]RawDetection, error) {
	lines, err := decodeLoose(page)
	if err != nil {
		return nil, NewError("parsePaddlePage", ErrEngineFailed, fmt.Sprintf("malformed page: %v", err))
	}
	if lines == nil {
		return nil, nil
	}

	list, ok := lines.([]any)
	if !ok {
		return nil, nil
	}

	detections := make([]RawDetection, 0, len(list))
	for _, line := range list {
		switch v := line.(type) {
		case map[string]any:
			detections = append(detections, RawDetection{
				v["text_region"],
				[]any{v["text"], v["confidence"]},
			})
		case []any:
			detections = append(detections, RawDetection(v))
		default:
			detections = append(detections, RawDetection{v})
		}
	}
	return detections, nil
}

// decodeLoose unmarshals JSON keeping numbers as json.Number so the
// normalizer can coerce them without float round-trips.
func decodeLoose(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases idle connections.
func (p *PaddleEngine) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
