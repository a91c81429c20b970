package pkgerror

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Type tells whether the caller or the server is at fault.
type Type int

const (
	TypeServer     Type = iota // the request was fine, serving it failed
	TypeValidation             // the request itself was rejected
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal     Code = iota // unspecified failure
	CodeInvalidInput             // request failed validation
	CodeTimeout                  // work ran past its deadline
	CodeUnavailable              // work refused while shutting down
)

//nolint:gochecknoglobals // fixed table
var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:     {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidInput: {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeTimeout:      {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeUnavailable:  {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Error is returned by handlers. It wraps the cause and carries the message
// shown to the client.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

// Error returns the cause when there is one, so logs show what went wrong
// rather than what the client was told.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	default:
		return "Internal error"
	}
}

func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

// LogValue renders the error as a group when passed to slog.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.errType.String()),
		slog.String("code", e.code.String()),
		slog.String("msg", e.Error()),
	}
	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Msg is the client-facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the code to an HTTP status; unknown codes are a 500.
func (e *Error) StatusCode() int {
	if info, ok := codes[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an unexpected failure.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewInvalidInput rejects a request that failed validation.
func NewInvalidInput(err error) error {
	return newError(err, "validation exception", TypeValidation, CodeInvalidInput)
}

// NewTimeout creates a server-type error for work that ran out of time.
func NewTimeout(err error) error {
	return newError(err, "request timed out", TypeServer, CodeTimeout)
}

// NewUnavailable creates a server-type error for work refused during shutdown.
func NewUnavailable(err error) error {
	return newError(err, "service is shutting down", TypeServer, CodeUnavailable)
}
