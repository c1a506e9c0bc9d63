package logrow

import "errors"

var (
	// ErrNotArray is returned when the log body is not a JSON array.
	ErrNotArray = errors.New("log body is not a JSON array")
	// ErrDecode wraps JSON syntax errors in a log body.
	ErrDecode = errors.New("decode log body")
)
