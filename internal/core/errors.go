package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeStreamNotFound = "stream_not_found"
	ErrCodeStreamEnded    = "stream_ended"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeValidation     = "validation_failed"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeTipFailed      = "tip_failed"
	ErrCodeStartFailed    = "start_failed"
)

var (
	ErrStreamNotFound = errors.New("stream unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation failed")
	ErrClientClosed   = errors.New("client closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match a CoreError against the sentinel of its class.
func (e *CoreError) Is(target error) bool {
	switch e.Code {
	case ErrCodeStreamNotFound, ErrCodeStreamEnded:
		return target == ErrStreamNotFound
	case ErrCodeUnauthorized:
		return target == ErrUnauthorized
	case ErrCodeValidation:
		return target == ErrValidation
	}
	return false
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
