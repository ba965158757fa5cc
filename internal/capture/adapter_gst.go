//go:build gst

package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const gstPullTimeout = 10 * time.Second

// gstAdapter captures one JPEG frame through a GStreamer pipeline
// (libcamerasrc on Pi-class hardware). Compiled in with -tags=gst; hosts
// without the stack get the stub. The pipeline is torn down in a guaranteed
// cleanup step even when the sample pull fails.
type gstAdapter struct{}

// NewGst returns the GStreamer capture adapter.
func NewGst() Adapter { return &gstAdapter{} }

func (a *gstAdapter) Name() string { return "gstreamer" }

func (a *gstAdapter) Available(ctx context.Context) bool {
	gst.Init(nil)
	src, err := gst.NewElement("libcamerasrc")
	if err != nil {
		return false
	}
	src.Unref()
	return true
}

func (a *gstAdapter) Capture(ctx context.Context) ([]byte, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("gstreamer: create pipeline: %v", err)
	}
	// SetState(Null) releases the camera regardless of how the capture ends.
	defer pipeline.SetState(gst.StateNull)

	src, err := gst.NewElement("libcamerasrc")
	if err != nil {
		return nil, fmt.Errorf("gstreamer: libcamerasrc unavailable: %v", err)
	}
	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("gstreamer: videoconvert unavailable: %v", err)
	}
	enc, err := gst.NewElement("jpegenc")
	if err != nil {
		return nil, fmt.Errorf("gstreamer: jpegenc unavailable: %v", err)
	}
	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("gstreamer: appsink unavailable: %v", err)
	}
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, convert, enc, sink.Element); err != nil {
		return nil, fmt.Errorf("gstreamer: assemble pipeline: %v", err)
	}
	if err := gst.ElementLinkMany(src, convert, enc, sink.Element); err != nil {
		return nil, fmt.Errorf("gstreamer: link pipeline: %v", err)
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("gstreamer: start pipeline: %v", err)
	}

	timeout := gstPullTimeout
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < timeout {
			timeout = rem
		}
	}
	sample := sink.TryPullSample(gst.ClockTime(timeout.Nanoseconds()))
	if sample == nil {
		return nil, fmt.Errorf("gstreamer: no frame within %s", timeout)
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, fmt.Errorf("gstreamer: sample carried no buffer")
	}
	mapInfo := buffer.Map(gst.MapRead)
	raw := mapInfo.Bytes()
	if len(raw) == 0 {
		buffer.Unmap()
		return nil, fmt.Errorf("gstreamer: empty frame buffer")
	}
	data := make([]byte, len(raw))
	copy(data, raw)
	buffer.Unmap()
	return data, nil
}
