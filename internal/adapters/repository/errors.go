package repository

import "errors"

// Sentinel kinds for row store errors.
var (
	ErrInvalidRow  = errors.New("row is not valid JSON")
	ErrClosed      = errors.New("store is closed")
	ErrUnknownKind = errors.New("unknown store kind")
	ErrNoPath      = errors.New("storage path is required")
)
