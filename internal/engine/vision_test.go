package engine

import (
	"reflect"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

func textAnnotation(text string, confidence float32, verts ...[2]int32) *visionpb.EntityAnnotation {
	poly := &visionpb.BoundingPoly{}
	for _, v := range verts {
		poly.Vertices = append(poly.Vertices, &visionpb.Vertex{X: v[0], Y: v[1]})
	}
	return &visionpb.EntityAnnotation{
		Description:  text,
		Confidence:   confidence,
		BoundingPoly: poly,
	}
}

func TestVisionDetectionsSkipsAggregateAnnotation(t *testing.T) {
	annotations := []*visionpb.EntityAnnotation{
		textAnnotation("hello world", 0, [2]int32{0, 0}, [2]int32{80, 0}, [2]int32{80, 30}, [2]int32{0, 30}),
		textAnnotation("hello", 0.5, [2]int32{0, 0}, [2]int32{40, 0}, [2]int32{40, 30}, [2]int32{0, 30}),
		textAnnotation("world", 0.25, [2]int32{42, 0}, [2]int32{80, 0}, [2]int32{80, 30}, [2]int32{42, 30}),
	}

	detections := visionDetections(annotations)
	if len(detections) != 2 {
		t.Fatalf("len(detections) = %d, want 2", len(detections))
	}

	want := []RawDetection{
		NewRawDetection([][]float64{{0, 0}, {40, 0}, {40, 30}, {0, 30}}, "hello", 0.5),
		NewRawDetection([][]float64{{42, 0}, {80, 0}, {80, 30}, {42, 30}}, "world", 0.25),
	}
	if !reflect.DeepEqual(detections, want) {
		t.Fatalf("detections = %v, want %v", detections, want)
	}
}

func TestVisionDetectionsKeepsSoleAnnotation(t *testing.T) {
	annotations := []*visionpb.EntityAnnotation{
		textAnnotation("hello", 0.5, [2]int32{0, 0}, [2]int32{40, 0}, [2]int32{40, 30}, [2]int32{0, 30}),
	}

	detections := visionDetections(annotations)
	if len(detections) != 1 {
		t.Fatalf("len(detections) = %d, want 1", len(detections))
	}

	pair, ok := detections[0][1].([]any)
	if !ok || pair[0] != "hello" {
		t.Fatalf("detection pair = %v, want text %q", detections[0][1], "hello")
	}
}

func TestVisionDetectionsDropsBlankDescriptions(t *testing.T) {
	annotations := []*visionpb.EntityAnnotation{
		textAnnotation("hello world", 0),
		textAnnotation("", 0.5, [2]int32{0, 0}, [2]int32{40, 0}, [2]int32{40, 30}, [2]int32{0, 30}),
		textAnnotation("world", 0.25, [2]int32{42, 0}, [2]int32{80, 0}, [2]int32{80, 30}, [2]int32{42, 30}),
	}

	detections := visionDetections(annotations)
	if len(detections) != 1 {
		t.Fatalf("len(detections) = %d, want 1", len(detections))
	}
}

func TestVisionDetectionsEmpty(t *testing.T) {
	if detections := visionDetections(nil); detections != nil {
		t.Fatalf("visionDetections(nil) = %v, want nil", detections)
	}
}
