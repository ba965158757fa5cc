package detect

// decodeError signals that the input bytes could not be decoded as an image,
// so the HTTP layer can return 400 instead of 500.
type decodeError struct{ msg string }

func (e decodeError) Error() string { return e.msg }

// ErrDecode constructs a decodeError.
func ErrDecode(msg string) error { return decodeError{msg: msg} }

// IsDecode reports whether err indicates unreadable image input.
func IsDecode(err error) bool {
	_, ok := err.(decodeError)
	return ok
}

// inferenceError signals a model run or result-encoding failure.
type inferenceError struct{ msg string }

func (e inferenceError) Error() string { return e.msg }

// ErrInference constructs an inferenceError.
func ErrInference(msg string) error { return inferenceError{msg: msg} }

// IsInference reports whether err indicates a failed inference pass.
func IsInference(err error) bool {
	_, ok := err.(inferenceError)
	return ok
}
