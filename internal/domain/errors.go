package domain

import "errors"

// User-facing messages.
const (
	MsgEmptyURL        = "Please enter a Pinterest URL"
	MsgExtractFailed   = "Failed to fetch media. Please check the URL."
	MsgUnexpectedError = "An error occurred. Please try again."
)

// ErrEmptyURL is matched by every ValidationError raised for blank input.
var ErrEmptyURL = errors.New("empty url")

// ValidationError is raised locally for bad input; it never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrEmptyURL) match the empty-input case.
func (e *ValidationError) Is(target error) bool {
	return target == ErrEmptyURL && e.Message == MsgEmptyURL
}

// NewEmptyURLError returns the validation error for blank input.
func NewEmptyURLError() *ValidationError {
	return &ValidationError{Message: MsgEmptyURL}
}

// ExtractionError is a transport failure or a non-success API answer.
// Error returns only the short user-facing message; the cause is kept for logs.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string { return e.Message }

func (e *ExtractionError) Unwrap() error { return e.Cause }

// PersistenceError wraps a failed storage read or write.
// It is logged for diagnostics and never shown to the user.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "persistence " + e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage turns any error into the text a presentation layer should show.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return MsgUnexpectedError
}
