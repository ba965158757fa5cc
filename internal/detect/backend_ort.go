package detect

import (
	"fmt"
	"image"
	"sync"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"parkd/internal/provision"
	"parkd/pkg/types"
)

// Number of candidate boxes a 640x640 YOLO export emits.
const ortCandidates = 8400

var ortInit sync.Once
var ortInitErr error

// ortDetector runs the ONNX parking model through onnxruntime. Selected with
// backend=ort for hosts where the OpenCV DNN module is not an option.
type ortDetector struct {
	mu           sync.Mutex // tensors are reused across calls
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	labels       []string
}

// NewORT loads the ONNX artifact into an onnxruntime session. library may
// point at the onnxruntime shared library; empty uses the platform default.
func NewORT(modelPath, library string, labels []string) (Detector, error) {
	ortInit.Do(func() {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, provision.ErrProvisioning(fmt.Sprintf("failed to initialize onnxruntime: %v", ortInitErr))
	}
	if len(labels) == 0 {
		labels = DefaultLabels
	}

	inputShape := ort.NewShape(1, 3, inputSize, inputSize)
	outputShape := ort.NewShape(1, int64(4+len(labels)), ortCandidates)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, provision.ErrProvisioning(fmt.Sprintf("failed to create input tensor: %v", err))
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, provision.ErrProvisioning(fmt.Sprintf("failed to create output tensor: %v", err))
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"images"}, []string{"output0"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, provision.ErrProvisioning(fmt.Sprintf("failed to load model from %s: %v", modelPath, err))
	}
	return &ortDetector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		labels:       labels,
	}, nil
}

func (d *ortDetector) Detect(frame gocv.Mat, conf float64) ([]types.Detection, error) {
	img, err := frame.ToImage()
	if err != nil {
		return nil, inferenceError{msg: fmt.Sprintf("convert frame: %v", err)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fillInputTensor(d.inputTensor.GetData(), img)
	if err := d.session.Run(); err != nil {
		return nil, inferenceError{msg: fmt.Sprintf("inference failed: %v", err)}
	}

	// Output is channel-major [1,c,n]; rearrange to one prediction per row.
	c := 4 + len(d.labels)
	out := d.outputTensor.GetData()
	preds := make([]float32, len(out))
	for j := 0; j < c; j++ {
		for i := 0; i < ortCandidates; i++ {
			preds[i*c+j] = out[j*ortCandidates+i]
		}
	}

	b := img.Bounds()
	sx := float64(b.Dx()) / float64(inputSize)
	sy := float64(b.Dy()) / float64(inputSize)
	return decodeGrid(preds, ortCandidates, c, sx, sy, conf, d.labels), nil
}

// fillInputTensor writes img into dst as planar CHW RGB scaled to [0,1].
func fillInputTensor(dst []float32, img image.Image) {
	scaled := resize.Resize(inputSize, inputSize, img, resize.Bilinear)
	plane := inputSize * inputSize
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			i := y*inputSize + x
			dst[i] = float32(r>>8) / 255.0
			dst[plane+i] = float32(g>>8) / 255.0
			dst[2*plane+i] = float32(b>>8) / 255.0
		}
	}
}

func (d *ortDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
	}
	if d.session != nil {
		d.session.Destroy()
	}
	return nil
}
