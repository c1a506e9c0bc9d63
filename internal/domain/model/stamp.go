// Package model contains the stamp card domain types shared by every layer.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Card rules.
const (
	// Threshold is the number of stamps that completes a set.
	Threshold = 10
	// RedeemCost is the number of stamp records consumed by one gift.
	RedeemCost = 10
	// DefaultVariant is used when an event carries no stamp variant.
	DefaultVariant = "star"
)

// Profile identifies one of the two fixed card owners.
type Profile string

const (
	ProfileA Profile = "A"
	ProfileB Profile = "B"
)

// Profiles lists every profile in display order.
var Profiles = []Profile{ProfileA, ProfileB}

// ParseProfile accepts "A"/"B" in any case.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToUpper(strings.TrimSpace(s))) {
	case ProfileA:
		return ProfileA, nil
	case ProfileB:
		return ProfileB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
}

// Valid reports whether p is A or B.
func (p Profile) Valid() bool { return p == ProfileA || p == ProfileB }

// RecordKind is the state of one history entry. Stamp is the only
// non-terminal kind.
type RecordKind string

const (
	RecordStamp    RecordKind = "stamp"
	RecordPenalty  RecordKind = "penalty"
	RecordRedeemed RecordKind = "redeemed"
)

// StampRecord is a single history entry.
type StampRecord struct {
	Kind       RecordKind `json:"type"`
	Variant    string     `json:"stampId"`
	OccurredAt time.Time  `json:"timestamp"`
}

// ProfileState is the folded state of one profile.
type ProfileState struct {
	DisplayName   string        `json:"name"`
	AvatarRef     string        `json:"avatar"`
	ActiveCount   int           `json:"count"`
	CompletedSets int           `json:"completedSets"`
	History       []StampRecord `json:"history"`
}

// Clone returns a copy that shares no history storage with s.
func (s ProfileState) Clone() ProfileState {
	out := s
	out.History = make([]StampRecord, len(s.History))
	copy(out.History, s.History)
	return out
}

// ValidStamps counts history records still of kind Stamp.
func (s ProfileState) ValidStamps() int {
	n := 0
	for _, r := range s.History {
		if r.Kind == RecordStamp {
			n++
		}
	}
	return n
}

// LastRecord returns the newest history entry.
func (s ProfileState) LastRecord() (StampRecord, bool) {
	if len(s.History) == 0 {
		return StampRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// SystemState holds both profiles.
type SystemState struct {
	A ProfileState `json:"profileA"`
	B ProfileState `json:"profileB"`
}

// NewSystemState returns both profiles at their defaults with empty history.
func NewSystemState() SystemState {
	return SystemState{
		A: DefaultProfileState(ProfileA),
		B: DefaultProfileState(ProfileB),
	}
}

// Profile returns the state of p. Anything other than B resolves to A.
func (s SystemState) Profile(p Profile) ProfileState {
	if p == ProfileB {
		return s.B
	}
	return s.A
}

// Set replaces the state of p.
func (s *SystemState) Set(p Profile, ps ProfileState) {
	if p == ProfileB {
		s.B = ps
		return
	}
	s.A = ps
}

// Clone deep-copies both profiles.
func (s SystemState) Clone() SystemState {
	return SystemState{A: s.A.Clone(), B: s.B.Clone()}
}
