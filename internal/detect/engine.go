package detect

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"parkd/internal/provision"
	"parkd/pkg/types"
)

// DefaultConfidence is the detection threshold used when the caller does not
// supply one.
const DefaultConfidence = 0.25

// Config selects and parameterizes the detector backend.
type Config struct {
	// Backend is "dnn" (OpenCV DNN, default) or "ort" (onnxruntime).
	Backend string
	// OrtLibrary optionally points at the onnxruntime shared library.
	OrtLibrary string
	// Labels override the model's class names.
	Labels []string
	// Confidence is the default detection threshold.
	Confidence float64
}

// Engine decodes image bytes, runs the provisioned model and renders an
// annotated frame. The detector handle is created lazily on first use and
// held for the process lifetime; initialization is guarded so racing
// requests load the model once.
type Engine struct {
	prov *provision.Provisioner
	cfg  Config

	mu       sync.Mutex
	detector Detector
}

func NewEngine(prov *provision.Provisioner, cfg Config) *Engine {
	if cfg.Backend == "" {
		cfg.Backend = "dnn"
	}
	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultConfidence
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = DefaultLabels
	}
	return &Engine{prov: prov, cfg: cfg}
}

// Loaded reports whether the model handle has been created.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detector != nil
}

// Backend names the configured detector backend.
func (e *Engine) Backend() string { return e.cfg.Backend }

// Run executes one detection pass: decode, detect, annotate, re-encode.
// conf <= 0 selects the configured default threshold. There are no retries;
// a single pass either succeeds or fails.
func (e *Engine) Run(ctx context.Context, data []byte, conf float64) ([]types.Detection, []byte, error) {
	if conf <= 0 {
		conf = e.cfg.Confidence
	}
	start := time.Now()

	frame, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || frame.Empty() {
		if err == nil {
			frame.Close()
		}
		return nil, nil, decodeError{msg: "invalid image data"}
	}
	defer frame.Close()

	det, err := e.ensureDetector(ctx)
	if err != nil {
		return nil, nil, err
	}
	dets, err := det.Detect(frame, conf)
	if err != nil {
		if IsInference(err) {
			return nil, nil, err
		}
		return nil, nil, inferenceError{msg: err.Error()}
	}

	drawDetections(&frame, dets)
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, nil, inferenceError{msg: fmt.Sprintf("failed to encode result image: %v", err)}
	}
	defer buf.Close()
	annotated := make([]byte, buf.Len())
	copy(annotated, buf.GetBytes())

	inferenceDuration.Observe(time.Since(start).Seconds())
	log.Debug().Int("detections", len(dets)).Dur("took", time.Since(start)).Msg("inference pass done")
	return dets, annotated, nil
}

// ensureDetector lazily creates the backend after the provisioner has made
// sure the artifact is on disk. Single-writer memoized initialization: a
// duplicate load would only waste resources, but we still guard it.
func (e *Engine) ensureDetector(ctx context.Context) (Detector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detector != nil {
		return e.detector, nil
	}
	path, err := e.prov.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	var det Detector
	switch e.cfg.Backend {
	case "dnn":
		det, err = NewDNN(path, e.cfg.Labels)
	case "ort":
		det, err = NewORT(path, e.cfg.OrtLibrary, e.cfg.Labels)
	default:
		return nil, provision.ErrProvisioning(fmt.Sprintf("unknown detector backend %q", e.cfg.Backend))
	}
	if err != nil {
		return nil, err
	}
	e.detector = det
	log.Info().Str("backend", e.cfg.Backend).Str("model", path).Msg("detector loaded")
	return det, nil
}

// Close releases the model handle if one was loaded.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detector == nil {
		return nil
	}
	err := e.detector.Close()
	e.detector = nil
	return err
}

var (
	colorEmpty    = color.RGBA{0, 200, 0, 0}
	colorOccupied = color.RGBA{220, 0, 0, 0}
	colorLot      = color.RGBA{0, 120, 220, 0}
	colorOther    = color.RGBA{160, 160, 160, 0}
)

func drawDetections(frame *gocv.Mat, dets []types.Detection) {
	for _, d := range dets {
		var c color.RGBA
		switch classify(d.Label) {
		case classEmpty:
			c = colorEmpty
		case classOccupied:
			c = colorOccupied
		case classLot:
			c = colorLot
		default:
			c = colorOther
		}
		r := image.Rect(d.Box.X, d.Box.Y, d.Box.X+d.Box.Width, d.Box.Y+d.Box.Height)
		gocv.Rectangle(frame, r, c, 2)
		caption := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
		gocv.PutText(frame, caption, image.Pt(r.Min.X, r.Min.Y-6),
			gocv.FontHersheySimplex, 0.5, c, 1)
	}
}
