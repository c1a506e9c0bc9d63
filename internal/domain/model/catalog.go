package model

import "fmt"

// StampVariant describes one selectable stamp.
type StampVariant struct {
	ID    string `json:"id"`
	Glyph string `json:"emoji"`
	Label string `json:"label"`
}

// Catalog lists the selectable stamps in display order.
var Catalog = []StampVariant{
	{ID: "cat", Glyph: "🐱", Label: "Kitty"},
	{ID: "bear", Glyph: "🐻", Label: "Bear"},
	{ID: "rabbit", Glyph: "🐰", Label: "Bunny"},
	{ID: "panda", Glyph: "🐼", Label: "Panda"},
	{ID: "frog", Glyph: "🐸", Label: "Froggy"},
	{ID: "chick", Glyph: "🐤", Label: "Chick"},
}

var starVariant = StampVariant{ID: DefaultVariant, Glyph: "⭐", Label: "Star"}

// LookupVariant finds a catalog entry by id. The default variant is accepted
// even though it is not selectable.
func LookupVariant(id string) (StampVariant, error) {
	for _, v := range Catalog {
		if v.ID == id {
			return v, nil
		}
	}
	if id == DefaultVariant {
		return starVariant, nil
	}
	return StampVariant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, id)
}

// Glyph returns the glyph for a variant id, falling back to the star for ids
// that are not in the catalog (old rows may carry retired ids).
func Glyph(id string) string {
	if v, err := LookupVariant(id); err == nil {
		return v.Glyph
	}
	return starVariant.Glyph
}

// ProfileDefaults is the starting identity of a profile.
type ProfileDefaults struct {
	DisplayName string
	AvatarRef   string
}

var defaults = map[Profile]ProfileDefaults{
	ProfileA: {DisplayName: "Brownie", AvatarRef: "https://picsum.photos/id/237/200/200"},
	ProfileB: {DisplayName: "Snowy", AvatarRef: "https://picsum.photos/id/1025/200/200"},
}

// Defaults returns the starting identity of p.
func Defaults(p Profile) ProfileDefaults {
	if d, ok := defaults[p]; ok {
		return d
	}
	return defaults[ProfileA]
}

// DefaultProfileState returns an empty card for p.
func DefaultProfileState(p Profile) ProfileState {
	d := Defaults(p)
	return ProfileState{
		DisplayName: d.DisplayName,
		AvatarRef:   d.AvatarRef,
		History:     []StampRecord{},
	}
}
