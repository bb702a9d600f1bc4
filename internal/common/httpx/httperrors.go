package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smartapp/smartapp/internal/common/apperrors"
)

// Error is an error response with a status code and a description.
type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
}

type errorRsp struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

// Failure is the result code carried by error responses.
const Failure int = 0

func (e *Error) Error() string {
	return e.Description
}

// Send writes the error as JSON when the client asks for it, as plain text
// otherwise.
func (e *Error) Send(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	if r != nil && WantsJSON(r) {
		b, err := json.Marshal(&errorRsp{Result: Failure, Error: e.Description})
		if err != nil {
			http.Error(w, "unable to encode error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(e.StatusCode)
		w.Write(b)
		return
	}
	http.Error(w, e.Description, e.StatusCode)
}

// WantsJSON reports whether the request prefers a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// FromError converts err into an Error. Status codes carried by apperrors
// are kept; anything else is a 500.
func FromError(err error) *Error {
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return ErrRequestTooLarge(mbe.Limit)
	}
	var appErr apperrors.Error
	if errors.As(err, &appErr) {
		code := appErr.StatusCode()
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return &Error{StatusCode: code, Description: appErr.ErrorAll()}
	}
	return ErrApplicationError(err.Error())
}

// SendError writes err as an error response. A nil err writes nothing.
func SendError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	FromError(err).Send(w, r)
}

// ErrApplicationError returns a 500 error. If no message is given a default
// is used.
func ErrApplicationError(msg ...string) *Error {
	s := "unable to process request"
	if len(msg) > 0 && msg[0] != "" {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusInternalServerError}
}

func ErrInvalidRequest(msg ...string) *Error {
	s := "invalid request data or empty request values"
	if len(msg) > 0 && msg[0] != "" {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusBadRequest}
}

func ErrForbidden(msg ...string) *Error {
	s := "forbidden"
	if len(msg) > 0 && msg[0] != "" {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusForbidden}
}

// ErrConflict is returned when the request clashes with one in progress.
func ErrConflict(msg ...string) *Error {
	s := "request conflicts with one in progress"
	if len(msg) > 0 && msg[0] != "" {
		s = msg[0]
	}
	return &Error{Description: s, StatusCode: http.StatusConflict}
}

func ErrNotFound() *Error {
	return &Error{Description: "page not found", StatusCode: http.StatusNotFound}
}

func ErrReqMethodNotSupported() *Error {
	return &Error{Description: "request method not supported", StatusCode: http.StatusMethodNotAllowed}
}

func ErrRequestTimeout() *Error {
	return &Error{Description: "request timed out", StatusCode: http.StatusRequestTimeout}
}

// ErrRequestTooLarge is returned when a body exceeds limit bytes.
func ErrRequestTooLarge(limit int64) *Error {
	return &Error{
		Description: fmt.Sprintf("request body too large (limit: %d bytes)", limit),
		StatusCode:  http.StatusRequestEntityTooLarge,
	}
}
