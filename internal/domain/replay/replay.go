package replay

import "github.com/okian/stampcard/internal/domain/model"

// Result captures a replay outcome.
type Result struct {
	State   model.SystemState
	Applied int
	Skipped int
}

// Replay folds events, oldest first, starting from the default state.
func Replay(events []model.Event) model.SystemState {
	return Run(events).State
}

// Run is Replay plus bookkeeping of applied and skipped events. Events with an
// unknown kind or profile are skipped; the rest of the log is still applied.
func Run(events []model.Event) Result {
	res := Result{State: model.NewSystemState()}
	for _, e := range events {
		if !e.Kind.Valid() || !e.Profile.Valid() {
			res.Skipped++
			continue
		}
		target := res.State.Profile(e.Profile)
		apply(&target, e)
		res.State.Set(e.Profile, target)
		res.Applied++
	}
	return res
}

// FoldSystem applies one event to the profile it names. The second return is
// false when the event was skipped.
func FoldSystem(state model.SystemState, e model.Event) (model.SystemState, bool) {
	if !e.Kind.Valid() || !e.Profile.Valid() {
		return state, false
	}
	next := state.Clone()
	next.Set(e.Profile, Fold(state.Profile(e.Profile), e))
	return next, true
}
