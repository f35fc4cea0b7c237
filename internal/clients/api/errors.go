package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated marks any 401 from the backend. Callers match
	// it with errors.Is regardless of which endpoint produced it.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
)

// Error is a non-2xx backend response. Detail carries the
// human-readable message extracted from the response body.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend: %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
