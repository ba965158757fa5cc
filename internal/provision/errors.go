package provision

// provisioningError signals a model download/storage failure so the HTTP
// layer can return 503 Service Unavailable instead of 500.
type provisioningError struct{ msg string }

func (e provisioningError) Error() string { return e.msg }

// ErrProvisioning constructs a provisioningError. Used by the detect layer
// when loading the artifact into a runtime handle fails.
func ErrProvisioning(msg string) error { return provisioningError{msg: msg} }

// IsProvisioning reports whether err indicates a model provisioning failure.
func IsProvisioning(err error) bool {
	_, ok := err.(provisioningError)
	return ok
}
