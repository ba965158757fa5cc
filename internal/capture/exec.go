package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// runStill executes an external still-capture command under a deadline.
// It returns trimmed stderr for diagnostics; a deadline expiry is reported
// as a timeout error rather than the raw kill signal.
func runStill(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	msg := strings.TrimSpace(stderr.String())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return msg, fmt.Errorf("%s timed out after %s", name, timeout)
		}
		if msg != "" {
			return msg, fmt.Errorf("%s: %s", name, msg)
		}
		return msg, fmt.Errorf("%s: %v", name, err)
	}
	return msg, nil
}

// haveExecutable is a cheap feasibility check for command-backed adapters.
func haveExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
