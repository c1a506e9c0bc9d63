// Package projection derives read-only views from a profile's folded state.
package projection

import "github.com/okian/stampcard/internal/domain/model"

// Slot is one cell of the stamp grid.
type Slot struct {
	Index   int    `json:"index"`
	Filled  bool   `json:"filled"`
	Variant string `json:"stampId,omitempty"`
	Glyph   string `json:"emoji,omitempty"`
}

// Grid is the current set as it should be drawn.
type Grid struct {
	Slots []Slot `json:"slots"`
	// SetNumber is 1-based and names the set the slots belong to.
	SetNumber int `json:"setNumber"`
	// JustCompleted is true while a finished set is still on display.
	JustCompleted bool `json:"justCompleted"`
	Filled        int  `json:"filled"`
}

// BuildGrid projects state onto model.Threshold slots. When the open set is
// empty but a set was completed, the completed set is shown in full.
func BuildGrid(state model.ProfileState) Grid {
	start := state.CompletedSets * model.Threshold
	filled := state.ActiveCount
	g := Grid{SetNumber: state.CompletedSets + 1}

	if state.ActiveCount == 0 && state.CompletedSets > 0 {
		start = (state.CompletedSets - 1) * model.Threshold
		filled = model.Threshold
		g.SetNumber = state.CompletedSets
		g.JustCompleted = true
	}

	g.Slots = make([]Slot, model.Threshold)
	for i := range g.Slots {
		g.Slots[i].Index = i
		if i >= filled {
			continue
		}
		// Penalties and redemptions can leave fewer records than the counters
		// claim; such slots stay filled with the default glyph.
		variant := model.DefaultVariant
		if j := start + i; j < len(state.History) {
			variant = state.History[j].Variant
		}
		g.Slots[i].Filled = true
		g.Slots[i].Variant = variant
		g.Slots[i].Glyph = model.Glyph(variant)
		g.Filled++
	}
	return g
}
