//go:build !gst

package capture

import (
	"context"
	"fmt"
)

// NewGst returns a stub adapter on builds without the GStreamer stack.
// The orchestrator's startup probe filters it out.
func NewGst() Adapter { return gstStub{} }

type gstStub struct{}

func (gstStub) Name() string                       { return "gstreamer" }
func (gstStub) Available(ctx context.Context) bool { return false }
func (gstStub) Capture(ctx context.Context) ([]byte, error) {
	return nil, fmt.Errorf("gstreamer support not compiled in (build with -tags=gst)")
}
