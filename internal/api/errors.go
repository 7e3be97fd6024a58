package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStatus is wrapped by StatusError.
var ErrStatus = errors.New("unexpected response status")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method    string
	Path      string
	Code      int
	Message   string // backend error message, if it sent one
	RequestID string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, msg)
}

// Unwrap returns ErrStatus.
func (e *StatusError) Unwrap() error { return ErrStatus }

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
