package engine

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"ocrapi/internal/pixel"
)

// maxVisionResults caps per-image text annotations requested from the
// Vision API.
const maxVisionResults = 100

// VisionEngine delegates recognition to Google Cloud Vision text
// detection. Credentials come from the environment: inline
// GOOGLE_CREDENTIALS JSON, a GOOGLE_APPLICATION_CREDENTIALS file path,
// or application default credentials as a fallback.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionEngine creates the annotator client from environment
// credentials.
func NewVisionEngine(ctx context.Context, _ Config) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionEngine{client: client}, nil
}

// Recognize runs text detection through the batch annotation API and
// maps each annotation into the common loose shape.
func (v *VisionEngine) Recognize(ctx context.Context, buf *pixel.Buffer) ([]RawDetection, error) {
	const op = "Recognize"

	encoded, err := buf.EncodePNG()
	if err != nil {
		return nil, WrapError(op, err, "serialize pixel buffer")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: encoded},
				Features: []*visionpb.Feature{
					{
						Type:       visionpb.Feature_TEXT_DETECTION,
						MaxResults: maxVisionResults,
					},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapError(op, ErrEngineFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, NewError(op, ErrEngineFailed, "empty batch annotation response")
	}

	imgResp := resp.GetResponses()[0]
	if imgResp.GetError() != nil {
		return nil, NewError(op, ErrEngineFailed, fmt.Sprintf("Vision API error: %s", imgResp.GetError().GetMessage()))
	}

	return visionDetections(imgResp.GetTextAnnotations()), nil
}

// visionDetections maps text annotations to the loose detection shape.
// The first annotation aggregates the whole image and is skipped when
// per-region annotations follow it.
func visionDetections(annotations []*visionpb.EntityAnnotation) []RawDetection {
	if len(annotations) == 0 {
		return nil
	}

	regions := annotations
	if len(annotations) > 1 {
		regions = annotations[1:]
	}

	detections := make([]RawDetection, 0, len(regions))
	for _, ann := range regions {
		if ann.GetDescription() == "" {
			continue
		}

		var poly [][]float64
		for _, vert := range ann.GetBoundingPoly().GetVertices() {
			poly = append(poly, []float64{float64(vert.GetX()), float64(vert.GetY())})
		}

		detections = append(detections, NewRawDetection(poly, ann.GetDescription(), float64(ann.GetConfidence())))
	}
	return detections
}

// Close closes the underlying Vision client.
func (v *VisionEngine) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
