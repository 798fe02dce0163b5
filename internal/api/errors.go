package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is matched by every 401 response
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response. Message comes from the body's error or
// message field and is meant to be shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// TransportError is a request that never produced a response
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTransport reports whether err is a retry-able network failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
