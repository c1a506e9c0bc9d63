package cheer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoint is returned by NewRemote without an endpoint.
	ErrNoEndpoint = errors.New("cheer endpoint is empty")
	// ErrEmptyCheer is returned when the service answers with no text.
	ErrEmptyCheer = errors.New("cheer service returned no text")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
