package domain

import "errors"

var (
	// ErrValidation marks a request missing a required field or carrying a malformed one.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failure reported by, or on the way to, the payment provider.
	ErrUpstream = errors.New("payment provider error")
	// ErrSignatureMismatch means the supplied payment signature did not match.
	ErrSignatureMismatch = errors.New("invalid signature")
)

// ValidationError carries the offending field and a caller-facing message.
type ValidationError struct {
	Field string
	Msg   string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UpstreamError wraps the provider's failure. Error returns the provider's
// own message so it can be passed through to the caller unchanged.
type UpstreamError struct {
	Provider string
	Err      error
}

func NewUpstreamError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Err: err}
}

func (e *UpstreamError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "Unknown error"
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
