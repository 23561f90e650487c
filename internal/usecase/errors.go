package usecase

import "fmt"

type ErrorCode string

const (
	// ErrorForbidden rejects a connect attempt: missing/invalid nickname or a
	// nickname held by a live connection.
	ErrorForbidden ErrorCode = "FORBIDDEN"
	// ErrorNotFound reports an operation from a connection with no record.
	ErrorNotFound ErrorCode = "NOT_FOUND"
	// ErrorInvalidPayload reports a malformed inbound body; recoverable, the
	// session survives.
	ErrorInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	// ErrorUnrecognized reports an unknown route key.
	ErrorUnrecognized ErrorCode = "UNRECOGNIZED"
	// ErrorInternal reports a storage or push infrastructure failure.
	ErrorInternal ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
