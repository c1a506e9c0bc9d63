// Package types contains the response shapes shared by the service and the
// HTTP API.
package types

import (
	"time"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/projection"
)

// ProfileView is a profile with its grid.
type ProfileView struct {
	Profile model.Profile `json:"profile"`
	model.ProfileState
	Grid        projection.Grid `json:"grid"`
	ValidStamps int             `json:"validStamps"`
	// CanPenalize and CanUndo mirror the action guards.
	CanPenalize bool `json:"canPenalize"`
	CanUndo     bool `json:"canUndo"`
	CanRedeem   bool `json:"canRedeem"`
}

// NewProfileView projects state for p.
func NewProfileView(p model.Profile, state model.ProfileState) ProfileView {
	last, ok := state.LastRecord()
	valid := state.ValidStamps()
	return ProfileView{
		Profile:      p,
		ProfileState: state,
		Grid:         projection.BuildGrid(state),
		ValidStamps:  valid,
		CanPenalize:  state.ActiveCount > 0,
		CanUndo:      ok && last.Kind == model.RecordStamp,
		CanRedeem:    valid > 0,
	}
}

// ActionResult is returned for an accepted user action.
type ActionResult struct {
	Event   model.Event `json:"event"`
	Profile ProfileView `json:"state"`
	Message string      `json:"message,omitempty"`
	// Queued is false when the append queue was full and the event will only
	// reach the log if the action is repeated.
	Queued bool `json:"queued"`
}

// SyncResult describes one replay of the remote log.
type SyncResult struct {
	At       time.Time     `json:"at"`
	Applied  int           `json:"applied"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"durationNs"`
	Error    string        `json:"error,omitempty"`
}

// OK reports whether the sync replaced the local state.
func (r SyncResult) OK() bool { return r.Error == "" }
