package detect

import (
	"gocv.io/x/gocv"

	"parkd/pkg/types"
)

// Model input side length expected by the parking detector (YOLO export).
const inputSize = 640

// iouThreshold is the overlap cutoff used during non-maximum suppression.
const iouThreshold = 0.45

// DefaultLabels are the class names of the parking detection model, indexed
// by class id.
var DefaultLabels = []string{"empty", "occupied", "lot"}

// Detector runs the parking model over one decoded frame. Implementations
// wrap a loaded model handle and are reused for the process lifetime.
type Detector interface {
	// Detect returns every detection at or above the confidence threshold,
	// with boxes in the frame's pixel space.
	Detect(frame gocv.Mat, conf float64) ([]types.Detection, error)
	// Close releases the underlying model handle.
	Close() error
}

func labelFor(labels []string, classID int) string {
	if classID >= 0 && classID < len(labels) {
		return labels[classID]
	}
	return ""
}
