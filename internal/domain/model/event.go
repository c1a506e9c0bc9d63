package model

import (
	"fmt"
	"strings"
	"time"
)

// EventKind is the closed set of log event kinds. The values are the wire
// names used by the log endpoint.
type EventKind string

const (
	KindStamp         EventKind = "stamp"
	KindPenalty       EventKind = "penalty"
	KindUndo          EventKind = "undo_stamp"
	KindReset         EventKind = "reset_all"
	KindRedeemGift    EventKind = "redeem_gift"
	KindUpdateProfile EventKind = "update_profile"
)

// EventKinds lists every known kind.
var EventKinds = []EventKind{KindStamp, KindPenalty, KindUndo, KindReset, KindRedeemGift, KindUpdateProfile}

// ParseEventKind maps a wire name to its kind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(strings.TrimSpace(s))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k is one of the six known kinds.
func (k EventKind) Valid() bool {
	switch k {
	case KindStamp, KindPenalty, KindUndo, KindReset, KindRedeemGift, KindUpdateProfile:
		return true
	}
	return false
}

// Event is one entry of the append-only log. Empty DisplayName, AvatarRef and
// Variant mean "not present".
type Event struct {
	Profile     Profile   `json:"profile"`
	Kind        EventKind `json:"type"`
	Variant     string    `json:"stampId,omitempty"`
	DisplayName string    `json:"userName,omitempty"`
	AvatarRef   string    `json:"avatar,omitempty"`
	OccurredAt  time.Time `json:"timestamp"`
}

// nullSentinels are values the log uses for "no value".
var nullSentinels = map[string]struct{}{
	"":          {},
	"undefined": {},
	"null":      {},
}

// Present reports whether an optional text field carries a real value.
func Present(v string) bool {
	_, isNull := nullSentinels[strings.TrimSpace(v)]
	return !isNull
}
