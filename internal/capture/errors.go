package capture

import "strings"

// noCameraError carries every adapter's failure reason after an exhausted
// fallback pass, so operators can see which hardware paths were tried.
type noCameraError struct{ reasons []string }

func (e noCameraError) Error() string {
	if len(e.reasons) == 0 {
		return "no capture backends configured"
	}
	return "no camera could capture a frame. Attempts: " + strings.Join(e.reasons, "; ")
}

// ErrNoCamera constructs a noCameraError from per-adapter failure reasons.
func ErrNoCamera(reasons []string) error { return noCameraError{reasons: reasons} }

// IsNoCamera reports whether err indicates that every capture backend failed.
func IsNoCamera(err error) bool {
	_, ok := err.(noCameraError)
	return ok
}
