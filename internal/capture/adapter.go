package capture

import "context"

// Adapter abstracts one physical capture mechanism. Implementations must be
// safe to call from concurrent requests; contention on the underlying device
// surfaces as an ordinary capture failure.
type Adapter interface {
	// Name identifies the adapter in failure reasons and metrics.
	Name() string
	// Available performs a cheap, short-bounded feasibility probe without
	// capturing anything.
	Available(ctx context.Context) bool
	// Capture produces one encoded still image or fails with a descriptive
	// reason. The attempt is bounded by the adapter's own deadline.
	Capture(ctx context.Context) ([]byte, error)
}
