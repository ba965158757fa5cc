package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	fswebcamBinary     = "fswebcam"
	fswebcamTimeout    = 12 * time.Second
	fswebcamResolution = "1280x720"
	// Frames to skip before capturing, lets auto-exposure settle.
	fswebcamSkipFrames = "20"
)

// fswebcamAdapter drives the generic webcam snapshot utility against a fixed
// list of device paths, tried in order until one succeeds.
type fswebcamAdapter struct {
	devices []string
	tmpDir  string
}

// NewFswebcam returns the fswebcam adapter. With no devices given it tries
// /dev/video1 before /dev/video0, matching typical USB enumeration where the
// external camera lands on the higher index.
func NewFswebcam(devices []string, tmpDir string) Adapter {
	if len(devices) == 0 {
		devices = []string{"/dev/video1", "/dev/video0"}
	}
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &fswebcamAdapter{devices: devices, tmpDir: tmpDir}
}

func (a *fswebcamAdapter) Name() string { return fswebcamBinary }

func (a *fswebcamAdapter) Available(ctx context.Context) bool {
	return haveExecutable(fswebcamBinary)
}

func (a *fswebcamAdapter) Capture(ctx context.Context) ([]byte, error) {
	if !haveExecutable(fswebcamBinary) {
		return nil, fmt.Errorf("%s is not installed", fswebcamBinary)
	}
	var reasons []string
	for _, dev := range a.devices {
		data, err := a.captureDevice(ctx, dev)
		if err == nil {
			return data, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", dev, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%s could not capture on any device (%s)", fswebcamBinary, strings.Join(reasons, "; "))
}

func (a *fswebcamAdapter) captureDevice(ctx context.Context, device string) ([]byte, error) {
	out := filepath.Join(a.tmpDir, "fswebcam_capture.jpg")
	defer os.Remove(out)

	if _, err := runStill(ctx, fswebcamTimeout, fswebcamBinary,
		"-d", device,
		"-r", fswebcamResolution,
		"--no-banner",
		"-S", fswebcamSkipFrames,
		out); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("no output file created")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("produced an empty file")
	}
	return data, nil
}
