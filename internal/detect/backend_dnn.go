package detect

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"parkd/internal/provision"
	"parkd/pkg/types"
)

// dnnDetector runs the ONNX parking model through the OpenCV DNN module.
// This is the default backend: no extra runtime beyond OpenCV itself.
type dnnDetector struct {
	mu     sync.Mutex // gocv.Net is not safe for concurrent Forward
	net    gocv.Net
	labels []string
}

// NewDNN loads the ONNX artifact into an OpenCV DNN net.
func NewDNN(modelPath string, labels []string) (Detector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, provision.ErrProvisioning(fmt.Sprintf("failed to load model from %s", modelPath))
	}
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	return &dnnDetector{net: net, labels: labels}, nil
}

func (d *dnnDetector) Detect(frame gocv.Mat, conf float64) ([]types.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/255.0,
		image.Pt(inputSize, inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	sz := out.Size()
	if len(sz) != 3 {
		return nil, inferenceError{msg: fmt.Sprintf("unexpected model output rank %d", len(sz))}
	}
	c, n := sz[1], sz[2]

	// Output is channel-major [1,c,n]; transpose to one prediction per row.
	flat := out.Reshape(1, c)
	defer flat.Close()
	rows := gocv.NewMat()
	defer rows.Close()
	gocv.Transpose(flat, &rows)
	preds, err := rows.DataPtrFloat32()
	if err != nil {
		return nil, inferenceError{msg: fmt.Sprintf("read model output: %v", err)}
	}

	sx := float64(frame.Cols()) / float64(inputSize)
	sy := float64(frame.Rows()) / float64(inputSize)
	return decodeGrid(preds, n, c, sx, sy, conf, d.labels), nil
}

func (d *dnnDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
