package eventlog

import (
	"errors"
	"fmt"
)

// ErrNoEndpoint is returned by New without an endpoint.
var ErrNoEndpoint = errors.New("log endpoint is empty")

// ErrLogTooLarge is returned by Fetch when the log body exceeds the read limit.
var ErrLogTooLarge = errors.New("log body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
