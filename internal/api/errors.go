package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the request never completed: dial/timeout failures, an
// open circuit breaker, or a response body that could not be decoded.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network failure: %v", e.Method, e.Path, e.Err)
}

func (e NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response (or a 2xx body reporting failure).
type ServerError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: server rejected request (%d): %s", e.Method, e.Path, e.StatusCode, msg)
}

func IsNetwork(err error) bool {
	var ne NetworkError
	return errors.As(err, &ne)
}

func IsRejection(err error) bool {
	var se ServerError
	return errors.As(err, &se)
}

// StatusCode returns the HTTP status of a ServerError, or 0.
func StatusCode(err error) int {
	var se ServerError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Message is the user-facing text for an API failure.
func Message(err error) string {
	var se ServerError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		return http.StatusText(se.StatusCode)
	}
	var ne NetworkError
	if errors.As(err, &ne) {
		return "server unreachable: " + ne.Err.Error()
	}
	return err.Error()
}

// tripsBreaker reports whether err counts against the circuit breaker.
// Client-side rejections (4xx) and requests the caller cancelled say nothing
// about server health.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se ServerError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return true
}
