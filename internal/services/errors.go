package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vibra/internal/shared"
)

// Status sentinels for [errors.Is]. Matching compares status codes only.
var (
	ErrBadRequest   = &RequestError{StatusCode: http.StatusBadRequest}
	ErrUnauthorized = &RequestError{StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &RequestError{StatusCode: http.StatusForbidden}
	ErrNotFound     = &RequestError{StatusCode: http.StatusNotFound}
)

// RequestError is returned when the server answers with a non-2xx status.
type RequestError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Method == "" {
		return fmt.Sprintf("%d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is reports whether target is a [*RequestError] with the same status code.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	return ok && t.StatusCode == e.StatusCode
}

func (e *RequestError) Unwrap() error { return shared.ErrAPIRequest }

// newRequestError builds a [*RequestError] from a response body.
//
// The server reports failures as {"error": "..."} and a few endpoints as
// {"success": false, "message": "..."}; either field becomes the message.
func newRequestError(method, path string, status int, body []byte) *RequestError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Error
		if msg == "" {
			msg = payload.Message
		}
	}
	if strings.TrimSpace(msg) == "" {
		msg = http.StatusText(status)
	}
	return &RequestError{StatusCode: status, Message: msg, Method: method, Path: path}
}

// NetworkError is returned when no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches [shared.ErrServiceUnavailable] in addition to the wrapped error chain.
func (e *NetworkError) Is(target error) bool {
	return target == shared.ErrServiceUnavailable
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a [*RequestError].
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// IsAuthRejection reports whether the server refused the credential (401 or 403).
func IsAuthRejection(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsNetwork reports whether err stems from a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Message returns the server-provided message of a [*RequestError], or err.Error() otherwise.
func Message(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
