// Package replay folds the ordered stamp log into card state.
//
// One rule table serves both the full replay and the optimistic single-step
// update, so a locally applied action and its later replay cannot disagree.
package replay

import "github.com/okian/stampcard/internal/domain/model"

// Fold applies e to state and returns the new state. state is not modified.
// Events with an unknown kind return state unchanged.
func Fold(state model.ProfileState, e model.Event) model.ProfileState {
	if !e.Kind.Valid() {
		return state
	}
	next := state.Clone()
	apply(&next, e)
	return next
}

// apply mutates target in place. The caller owns target and has checked e.Kind.
func apply(target *model.ProfileState, e model.Event) {
	if model.Present(e.DisplayName) {
		target.DisplayName = e.DisplayName
	}
	if model.Present(e.AvatarRef) {
		target.AvatarRef = e.AvatarRef
	}

	switch e.Kind {
	case model.KindStamp:
		stamp(target, e)
	case model.KindPenalty:
		penalize(target)
	case model.KindUndo:
		undo(target)
	case model.KindReset:
		target.ActiveCount = 0
		target.CompletedSets = 0
		target.History = []model.StampRecord{}
	case model.KindRedeemGift:
		redeem(target)
	case model.KindUpdateProfile:
	}
}

func stamp(target *model.ProfileState, e model.Event) {
	variant := e.Variant
	if !model.Present(variant) {
		variant = model.DefaultVariant
	}
	target.History = append(target.History, model.StampRecord{
		Kind:       model.RecordStamp,
		Variant:    variant,
		OccurredAt: e.OccurredAt,
	})
	target.ActiveCount++
	if target.ActiveCount >= model.Threshold {
		target.ActiveCount = 0
		target.CompletedSets++
	}
}

// penalize keeps two independent guards: the count drops whenever it is
// positive, and the newest Stamp record flips whenever one exists.
func penalize(target *model.ProfileState) {
	if target.ActiveCount > 0 {
		target.ActiveCount--
	}
	if i := lastStamp(target.History); i >= 0 {
		target.History[i].Kind = model.RecordPenalty
	}
}

func undo(target *model.ProfileState) {
	i := lastStamp(target.History)
	if i < 0 {
		return
	}
	target.History = append(target.History[:i], target.History[i+1:]...)

	switch {
	case target.ActiveCount == 0 && target.CompletedSets > 0:
		target.ActiveCount = model.Threshold - 1
		target.CompletedSets--
	case target.ActiveCount > 0:
		target.ActiveCount--
	}
}

// redeem flips the oldest RedeemCost stamps and recomputes the counters from
// what is left.
func redeem(target *model.ProfileState) {
	flipped := 0
	for i := range target.History {
		if flipped >= model.RedeemCost {
			break
		}
		if target.History[i].Kind == model.RecordStamp {
			target.History[i].Kind = model.RecordRedeemed
			flipped++
		}
	}
	valid := target.ValidStamps()
	target.ActiveCount = valid % model.Threshold
	target.CompletedSets = valid / model.Threshold
}

func lastStamp(history []model.StampRecord) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Kind == model.RecordStamp {
			return i
		}
	}
	return -1
}
