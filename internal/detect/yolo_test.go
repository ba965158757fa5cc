package detect

import (
	"testing"
)

// rows builds a prediction grid out of [cx cy w h score...] rows.
func rows(c int, rs ...[]float32) []float32 {
	var out []float32
	for _, r := range rs {
		if len(r) != c {
			panic("bad row width")
		}
		out = append(out, r...)
	}
	return out
}

func TestDecodeGridScalesBoxesToFrame(t *testing.T) {
	// One confident "occupied" box centered at model coords (320,320),
	// frame twice the model size on both axes.
	c := 4 + len(DefaultLabels)
	preds := rows(c, []float32{320, 320, 100, 50, 0.1, 0.9, 0.0})

	dets := decodeGrid(preds, 1, c, 2, 2, 0.25, DefaultLabels)
	if len(dets) != 1 {
		t.Fatalf("dets=%d", len(dets))
	}
	d := dets[0]
	if d.Label != "occupied" || d.ClassID != 1 {
		t.Fatalf("label=%q class=%d", d.Label, d.ClassID)
	}
	if d.Confidence < 0.89 || d.Confidence > 0.91 {
		t.Fatalf("confidence=%v", d.Confidence)
	}
	if d.Box.X != 540 || d.Box.Y != 590 || d.Box.Width != 200 || d.Box.Height != 100 {
		t.Fatalf("box=%+v", d.Box)
	}
}

func TestDecodeGridDropsLowConfidence(t *testing.T) {
	c := 4 + len(DefaultLabels)
	preds := rows(c,
		[]float32{100, 100, 10, 10, 0.2, 0.1, 0.0},
		[]float32{300, 300, 10, 10, 0.0, 0.0, 0.05},
	)
	if dets := decodeGrid(preds, 2, c, 1, 1, 0.25, DefaultLabels); dets != nil {
		t.Fatalf("dets=%+v", dets)
	}
}

func TestDecodeGridSuppressesOverlaps(t *testing.T) {
	// Two nearly identical boxes for the same spot; NMS keeps the stronger.
	c := 4 + len(DefaultLabels)
	preds := rows(c,
		[]float32{100, 100, 40, 40, 0.9, 0.0, 0.0},
		[]float32{102, 101, 40, 40, 0.6, 0.0, 0.0},
		[]float32{500, 500, 40, 40, 0.0, 0.8, 0.0},
	)
	dets := decodeGrid(preds, 3, c, 1, 1, 0.25, DefaultLabels)
	if len(dets) != 2 {
		t.Fatalf("dets=%d: %+v", len(dets), dets)
	}
	var sawEmpty, sawOccupied bool
	for _, d := range dets {
		switch d.Label {
		case "empty":
			sawEmpty = true
			if d.Confidence < 0.89 {
				t.Fatalf("weaker duplicate survived: %+v", d)
			}
		case "occupied":
			sawOccupied = true
		}
	}
	if !sawEmpty || !sawOccupied {
		t.Fatalf("dets=%+v", dets)
	}
}
