package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	rpicamBinary  = "rpicam-still"
	rpicamTimeout = 10 * time.Second
	// Exposure delay passed to rpicam-still (-t), in milliseconds.
	rpicamDelayMS = 1000
)

// rpicamAdapter drives the Raspberry Pi still-capture utility. It is the
// preferred command-backed path on single-board hosts.
type rpicamAdapter struct {
	tmpDir string
}

// NewRpicam returns the rpicam-still adapter. tmpDir defaults to the
// system temp directory.
func NewRpicam(tmpDir string) Adapter {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &rpicamAdapter{tmpDir: tmpDir}
}

func (a *rpicamAdapter) Name() string { return rpicamBinary }

func (a *rpicamAdapter) Available(ctx context.Context) bool {
	return haveExecutable(rpicamBinary)
}

func (a *rpicamAdapter) Capture(ctx context.Context) ([]byte, error) {
	if !haveExecutable(rpicamBinary) {
		return nil, fmt.Errorf("%s is not installed", rpicamBinary)
	}
	out := filepath.Join(a.tmpDir, "rpicam_capture.jpg")
	defer os.Remove(out)

	if _, err := runStill(ctx, rpicamTimeout, rpicamBinary,
		"-o", out, "-t", fmt.Sprintf("%d", rpicamDelayMS)); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%s did not create an output file", rpicamBinary)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s produced an empty file", rpicamBinary)
	}
	return data, nil
}
