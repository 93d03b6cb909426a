package emit

import "fmt"

// ErrorKind categorizes generation failures. Providers and the emitter MUST
// use these constants instead of ad hoc strings so callers can branch on
// the failure class.
type ErrorKind string

const (
	// KindEnvironment covers absent or unparseable environment variables,
	// such as a malformed SOURCE_DATE_EPOCH value.
	KindEnvironment ErrorKind = "environment"
	// KindIO covers subprocess spawn/read failures and file-read failures.
	KindIO ErrorKind = "io"
	// KindParse covers malformed output from an external tool.
	KindParse ErrorKind = "parse"
	// KindProtocol covers malformed on-disk reference state and misuse of
	// the emitter lifecycle. Protocol errors around rebuild triggers are
	// non-fatal by classification: they only suppress trigger emission.
	KindProtocol ErrorKind = "protocol"
	// KindUnknown is the catch-all for unclassified failures.
	KindUnknown ErrorKind = "unknown"
)

// Error is the standard error type for generation failures. It carries the
// failure class, a human-readable message, and the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error with the given kind, message, and optional
// underlying cause.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
