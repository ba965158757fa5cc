package capture

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// deviceAdapter opens one numbered capture device directly, reads a single
// frame and re-encodes it. The device is released on every exit path.
type deviceAdapter struct {
	index int
}

// NewDevice returns a direct-device adapter for the given capture index.
func NewDevice(index int) Adapter {
	return &deviceAdapter{index: index}
}

func (a *deviceAdapter) Name() string { return fmt.Sprintf("video%d", a.index) }

func (a *deviceAdapter) Available(ctx context.Context) bool {
	cam, err := gocv.VideoCaptureDevice(a.index)
	if err != nil {
		return false
	}
	defer cam.Close()
	return cam.IsOpened()
}

func (a *deviceAdapter) Capture(ctx context.Context) ([]byte, error) {
	cam, err := gocv.VideoCaptureDevice(a.index)
	if err != nil {
		return nil, fmt.Errorf("webcam not detected on /dev/video%d", a.index)
	}
	defer cam.Close()
	if !cam.IsOpened() {
		return nil, fmt.Errorf("webcam not detected on /dev/video%d", a.index)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := cam.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("webcam on /dev/video%d failed to capture a frame", a.index)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode captured frame from /dev/video%d: %v", a.index, err)
	}
	defer buf.Close()
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
