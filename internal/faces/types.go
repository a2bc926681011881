// Package faces detects faces in images and produces one embedding vector
// per detected face via a local face-embedding service.
package faces

import "context"

// Mode selects the detector trade-off. The choice affects detection quality
// and latency only; the output contract is identical for both modes.
type Mode string

const (
	// ModeAccurate is the higher-accuracy, slower detector.
	ModeAccurate Mode = "accurate"
	// ModeFast is the faster, lower-accuracy detector.
	ModeFast Mode = "fast"
)

// Detection represents a single detected face.
type Detection struct {
	FaceIndex int       `json:"face_index"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// Detector produces face embeddings for an encoded image. Implementations
// must return detections in a stable order for identical input.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) ([]Detection, error)
}
