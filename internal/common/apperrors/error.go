// Package apperrors provides chainable application errors that carry an HTTP
// status code and a Kind. The Kind lets callers tell a transport failure from a
// server rejection or a local validation failure without string matching.
package apperrors

import "errors"

// Kind classifies where an error originated.
type Kind int

const (
	KindUnknown    Kind = iota
	KindTransport       // no response was received
	KindAuth            // credentials rejected (400/401)
	KindNotFound        // account or record does not exist (404)
	KindServer          // any other non-2xx response
	KindValidation      // rejected locally before dispatch
	KindProcessing      // third-party processing failure
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Error is the interface implemented by all application errors. All methods
// that return Error leave the receiver unchanged.
type Error interface {
	error
	Unwrap() error

	New(msg string) Error                  // new error using current as template
	Msg(msg string) Error                  // new message, wraps current
	MsgErr(msg string, err ...error) Error // new message, wraps current and errs
	Err(err ...error) Error                // same message, attaches errs
	SetStatusCode(int) Error
	StatusCode() int
	SetKind(Kind) Error
	Kind() Kind
	ErrorAll() string // message followed by wrapped error messages
}

// KindOf returns the Kind of the first application error in err's chain.
func KindOf(err error) Kind {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindUnknown
}

// StatusCodeOf returns the status code of the first application error in
// err's chain, or 0.
func StatusCodeOf(err error) int {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return 0
}
