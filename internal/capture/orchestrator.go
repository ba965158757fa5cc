package capture

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Options controls how the default adapter list is assembled.
type Options struct {
	// WebcamDevices are device paths tried by the fswebcam adapter.
	WebcamDevices []string
	// CaptureDevices are numbered devices tried by the direct adapter.
	CaptureDevices []int
	// TmpDir overrides the temp directory for command-backed adapters.
	TmpDir string
}

// Orchestrator tries capture backends in a fixed priority order and returns
// the first successful frame. It is the system's only retry mechanism:
// every configured adapter is tried exactly once, no backoff.
type Orchestrator struct {
	adapters []Adapter
}

// NewOrchestrator builds an orchestrator over an explicit adapter list,
// highest priority first.
func NewOrchestrator(adapters ...Adapter) *Orchestrator {
	return &Orchestrator{adapters: adapters}
}

// Assemble probes the host and builds the default priority order: the
// GStreamer path when compiled in and usable, then rpicam-still, then
// fswebcam, then direct device indices.
func Assemble(ctx context.Context, opts Options) *Orchestrator {
	var adapters []Adapter
	if gst := NewGst(); gst.Available(ctx) {
		adapters = append(adapters, gst)
	}
	adapters = append(adapters,
		NewRpicam(opts.TmpDir),
		NewFswebcam(opts.WebcamDevices, opts.TmpDir),
	)
	devices := opts.CaptureDevices
	if len(devices) == 0 {
		devices = []int{0, 1}
	}
	for _, idx := range devices {
		adapters = append(adapters, NewDevice(idx))
	}
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	log.Info().Strs("adapters", names).Msg("capture backends assembled")
	return NewOrchestrator(adapters...)
}

// Adapters lists backend names in priority order.
func (o *Orchestrator) Adapters() []string {
	names := make([]string, len(o.adapters))
	for i, a := range o.adapters {
		names[i] = a.Name()
	}
	return names
}

// Available reports whether any backend's feasibility probe passes. It never
// captures a frame; used to gate UI affordances only.
func (o *Orchestrator) Available(ctx context.Context) bool {
	for _, a := range o.adapters {
		if a.Available(ctx) {
			return true
		}
	}
	return false
}

// Capture returns the first successful frame together with the name of the
// adapter that produced it. When every backend fails the error joins each
// adapter's reason so the operator can see what was tried.
func (o *Orchestrator) Capture(ctx context.Context) ([]byte, string, error) {
	var reasons []string
	for _, a := range o.adapters {
		if !a.Available(ctx) {
			reasons = append(reasons, fmt.Sprintf("%s: not available", a.Name()))
			attemptsTotal.WithLabelValues(a.Name(), "unavailable").Inc()
			continue
		}
		data, err := a.Capture(ctx)
		if err == nil && len(data) > 0 {
			attemptsTotal.WithLabelValues(a.Name(), "ok").Inc()
			log.Debug().Str("adapter", a.Name()).Int("bytes", len(data)).Msg("frame captured")
			return data, a.Name(), nil
		}
		if err == nil {
			err = fmt.Errorf("produced an empty frame")
		}
		attemptsTotal.WithLabelValues(a.Name(), "error").Inc()
		log.Warn().Str("adapter", a.Name()).Err(err).Msg("capture attempt failed")
		reasons = append(reasons, fmt.Sprintf("%s: %v", a.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", noCameraError{reasons: reasons}
}
