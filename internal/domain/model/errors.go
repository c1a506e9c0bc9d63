package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrUnknownVariant = errors.New("unknown stamp variant")
)
