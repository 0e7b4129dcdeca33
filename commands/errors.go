package commands

import "fmt"

// Kind classifies a tool failure. The kind is logged server-side; only the
// message travels to the client.
type Kind int

const (
	KindInvalidParams Kind = iota
	KindPermissionDenied
	KindActionFailed
	KindNotFound
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParams:
		return "invalid_params"
	case KindPermissionDenied:
		return "permission_denied"
	case KindActionFailed:
		return "action_failed"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a declared tool failure. Message is the client-facing text; Cause,
// when set, stays in the server log.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// InvalidParams reports malformed or out-of-range tool arguments.
func InvalidParams(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports a capability the device refuses or lacks.
func PermissionDenied(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing target (package, window, element).
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Timeout reports an operation that did not finish in time.
func Timeout(format string, args ...interface{}) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// ActionFailed reports an operation that was attempted and failed. The cause
// is preserved for the log.
func ActionFailed(message string, cause error) *Error {
	return &Error{Kind: KindActionFailed, Message: message, Cause: cause}
}
