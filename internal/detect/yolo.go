package detect

import (
	"image"

	"gocv.io/x/gocv"

	"parkd/pkg/types"
)

// decodeGrid turns a YOLO prediction grid into detections. preds holds n
// rows of c values laid out row-major: cx, cy, w, h followed by c-4 class
// scores, all in model input space. sx/sy scale model coordinates back to
// the source frame. Non-maximum suppression collapses overlapping boxes.
func decodeGrid(preds []float32, n, c int, sx, sy float64, conf float64, labels []string) []types.Detection {
	var (
		boxes    []image.Rectangle
		scores   []float32
		classIDs []int
	)
	for i := 0; i < n; i++ {
		row := preds[i*c : (i+1)*c]
		best := -1
		bestScore := float32(0)
		for j := 4; j < c; j++ {
			if row[j] > bestScore {
				bestScore = row[j]
				best = j - 4
			}
		}
		if best < 0 || float64(bestScore) < conf {
			continue
		}
		cx, cy := float64(row[0]), float64(row[1])
		w, h := float64(row[2]), float64(row[3])
		x0 := int((cx - w/2) * sx)
		y0 := int((cy - h/2) * sy)
		x1 := int((cx + w/2) * sx)
		y1 := int((cy + h/2) * sy)
		boxes = append(boxes, image.Rect(x0, y0, x1, y1))
		scores = append(scores, bestScore)
		classIDs = append(classIDs, best)
	}
	if len(boxes) == 0 {
		return nil
	}

	keep := gocv.NMSBoxes(boxes, scores, float32(conf), iouThreshold)
	dets := make([]types.Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(boxes) {
			continue
		}
		r := boxes[idx]
		dets = append(dets, types.Detection{
			ClassID:    classIDs[idx],
			Label:      labelFor(labels, classIDs[idx]),
			Confidence: float64(scores[idx]),
			Box: types.Box{
				X:      r.Min.X,
				Y:      r.Min.Y,
				Width:  r.Dx(),
				Height: r.Dy(),
			},
		})
	}
	return dets
}
