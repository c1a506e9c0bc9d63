package replay_test

import (
	"testing"
	"time"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/replay"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func ev(p model.Profile, kind model.EventKind) model.Event {
	return model.Event{Profile: p, Kind: kind, Variant: "cat", OccurredAt: t0}
}

func repeat(e model.Event, n int) []model.Event {
	out := make([]model.Event, 0, n)
	for i := 0; i < n; i++ {
		e.OccurredAt = t0.Add(time.Duration(i) * time.Minute)
		out = append(out, e)
	}
	return out
}

func kinds(history []model.StampRecord) []model.RecordKind {
	out := make([]model.RecordKind, len(history))
	for i, r := range history {
		out[i] = r.Kind
	}
	return out
}

func TestReplayDeterminism(t *testing.T) {
	Convey("Given a mixed event log", t, func() {
		events := append(repeat(ev(model.ProfileA, model.KindStamp), 13),
			ev(model.ProfileA, model.KindPenalty),
			ev(model.ProfileB, model.KindStamp),
			model.Event{Profile: model.ProfileB, Kind: model.KindUpdateProfile, DisplayName: "Mochi"},
			ev(model.ProfileA, model.KindUndo),
			ev(model.ProfileA, model.KindRedeemGift),
		)

		Convey("When it is replayed twice", func() {
			first := replay.Replay(events)
			second := replay.Replay(events)

			Convey("Then both results are identical", func() {
				So(first, ShouldResemble, second)
			})
		})
	})
}

func TestThresholdRollover(t *testing.T) {
	Convey("Given ten stamp events from a fresh state", t, func() {
		state := replay.Replay(repeat(ev(model.ProfileA, model.KindStamp), 10)).A

		Convey("Then one set is completed and the open set is empty", func() {
			So(state.ActiveCount, ShouldEqual, 0)
			So(state.CompletedSets, ShouldEqual, 1)
			So(len(state.History), ShouldEqual, 10)
			for _, r := range state.History {
				So(r.Kind, ShouldEqual, model.RecordStamp)
			}
		})
	})
}

func TestUndo(t *testing.T) {
	Convey("Given undo events", t, func() {
		Convey("When a single stamp is undone", func() {
			got := replay.Replay([]model.Event{ev(model.ProfileA, model.KindStamp), ev(model.ProfileA, model.KindUndo)})
			want := replay.Replay(nil)

			Convey("Then the state equals the empty replay", func() {
				So(got, ShouldResemble, want)
				So(got.A.History, ShouldBeEmpty)
			})
		})

		Convey("When the stamp that completed a set is undone", func() {
			events := append(repeat(ev(model.ProfileA, model.KindStamp), 10), ev(model.ProfileA, model.KindUndo))
			state := replay.Replay(events).A

			Convey("Then the set is reopened at nine", func() {
				So(state.ActiveCount, ShouldEqual, 9)
				So(state.CompletedSets, ShouldEqual, 0)
				So(len(state.History), ShouldEqual, 9)
			})
		})

		Convey("When there is no stamp record to remove", func() {
			events := []model.Event{
				ev(model.ProfileA, model.KindStamp),
				ev(model.ProfileA, model.KindPenalty),
				ev(model.ProfileA, model.KindUndo),
			}
			state := replay.Replay(events).A

			Convey("Then the undo does nothing", func() {
				So(state.ActiveCount, ShouldEqual, 0)
				So(kinds(state.History), ShouldResemble, []model.RecordKind{model.RecordPenalty})
			})
		})

		Convey("When the newest record is a penalty", func() {
			events := []model.Event{
				ev(model.ProfileA, model.KindStamp),
				ev(model.ProfileA, model.KindStamp),
				ev(model.ProfileA, model.KindPenalty),
				ev(model.ProfileA, model.KindUndo),
			}
			state := replay.Replay(events).A

			Convey("Then the older stamp is removed instead", func() {
				So(kinds(state.History), ShouldResemble, []model.RecordKind{model.RecordPenalty})
				So(state.ActiveCount, ShouldEqual, 0)
			})
		})
	})
}

func TestRedeemGift(t *testing.T) {
	Convey("Given fifteen stamps", t, func() {
		events := repeat(ev(model.ProfileA, model.KindStamp), 15)

		Convey("When a gift is redeemed", func() {
			state := replay.Replay(append(events, ev(model.ProfileA, model.KindRedeemGift))).A

			Convey("Then exactly the first ten stamps are consumed", func() {
				for i, r := range state.History {
					if i < 10 {
						So(r.Kind, ShouldEqual, model.RecordRedeemed)
					} else {
						So(r.Kind, ShouldEqual, model.RecordStamp)
					}
				}
				So(state.ActiveCount, ShouldEqual, 5)
				So(state.CompletedSets, ShouldEqual, 0)
			})

			Convey("And a second redeem consumes the remaining five", func() {
				state := replay.Replay(append(events,
					ev(model.ProfileA, model.KindRedeemGift),
					ev(model.ProfileA, model.KindRedeemGift),
				)).A

				So(state.ValidStamps(), ShouldEqual, 0)
				So(state.ActiveCount, ShouldEqual, 0)
				So(state.CompletedSets, ShouldEqual, 0)
				So(len(state.History), ShouldEqual, 15)
			})
		})

		Convey("When stamps are redeemed past a penalty", func() {
			mixed := append(repeat(ev(model.ProfileA, model.KindStamp), 12),
				ev(model.ProfileA, model.KindPenalty),
				ev(model.ProfileA, model.KindRedeemGift),
			)
			state := replay.Replay(mixed).A

			Convey("Then counters are recomputed from the remaining stamps", func() {
				So(state.ValidStamps(), ShouldEqual, 1)
				So(state.ActiveCount, ShouldEqual, 1)
				So(state.CompletedSets, ShouldEqual, 0)
				So(state.History[11].Kind, ShouldEqual, model.RecordPenalty)
			})
		})
	})
}

func TestPenalty(t *testing.T) {
	Convey("Given two stamps followed by a penalty", t, func() {
		state := replay.Replay([]model.Event{
			ev(model.ProfileA, model.KindStamp),
			ev(model.ProfileA, model.KindStamp),
			ev(model.ProfileA, model.KindPenalty),
		}).A

		Convey("Then the newest stamp becomes a penalty and the count drops by one", func() {
			So(kinds(state.History), ShouldResemble, []model.RecordKind{model.RecordStamp, model.RecordPenalty})
			So(state.ActiveCount, ShouldEqual, 1)
		})
	})

	Convey("Given a penalty right after a completed set", t, func() {
		state := replay.Replay(append(repeat(ev(model.ProfileA, model.KindStamp), 10),
			ev(model.ProfileA, model.KindPenalty))).A

		Convey("Then the count guard and the history flip act independently", func() {
			So(state.ActiveCount, ShouldEqual, 0)
			So(state.CompletedSets, ShouldEqual, 1)
			So(state.History[9].Kind, ShouldEqual, model.RecordPenalty)
		})
	})
}

func TestReset(t *testing.T) {
	Convey("Given any history followed by a reset", t, func() {
		events := append(repeat(ev(model.ProfileA, model.KindStamp), 23),
			ev(model.ProfileA, model.KindPenalty),
			model.Event{Profile: model.ProfileA, Kind: model.KindUpdateProfile, DisplayName: "Mochi"},
			ev(model.ProfileA, model.KindReset),
		)
		state := replay.Replay(events).A

		Convey("Then the card is empty but the name survives", func() {
			So(state.ActiveCount, ShouldEqual, 0)
			So(state.CompletedSets, ShouldEqual, 0)
			So(state.History, ShouldBeEmpty)
			So(state.DisplayName, ShouldEqual, "Mochi")
		})
	})
}

func TestProfileUpdates(t *testing.T) {
	Convey("Given a stamp followed by a rename", t, func() {
		stamped := replay.Replay([]model.Event{ev(model.ProfileA, model.KindStamp)}).A
		renamed := replay.Replay([]model.Event{
			ev(model.ProfileA, model.KindStamp),
			{Profile: model.ProfileA, Kind: model.KindUpdateProfile, DisplayName: "X"},
		}).A

		Convey("Then only the display name differs", func() {
			So(renamed.DisplayName, ShouldEqual, "X")
			renamed.DisplayName = stamped.DisplayName
			So(renamed, ShouldResemble, stamped)
		})
	})

	Convey("Given events carrying sentinel names and avatars", t, func() {
		state := replay.Replay([]model.Event{
			{Profile: model.ProfileB, Kind: model.KindStamp, DisplayName: "undefined", AvatarRef: "null"},
		}).B

		Convey("Then the defaults are kept", func() {
			So(state.DisplayName, ShouldEqual, "Snowy")
			So(state.AvatarRef, ShouldEqual, model.Defaults(model.ProfileB).AvatarRef)
		})
	})

	Convey("Given a stamp without a variant", t, func() {
		state := replay.Replay([]model.Event{{Profile: model.ProfileA, Kind: model.KindStamp}}).A

		Convey("Then the default star is recorded", func() {
			So(state.History[0].Variant, ShouldEqual, model.DefaultVariant)
		})
	})
}

func TestMalformedEvents(t *testing.T) {
	Convey("Given a log with unknown kinds and profiles", t, func() {
		events := []model.Event{
			ev(model.ProfileA, model.KindStamp),
			{Profile: model.ProfileA, Kind: "double_stamp", DisplayName: "Hacker"},
			{Profile: "C", Kind: model.KindStamp},
			ev(model.ProfileA, model.KindStamp),
		}
		res := replay.Run(events)

		Convey("Then the bad events are skipped without aborting", func() {
			So(res.Applied, ShouldEqual, 2)
			So(res.Skipped, ShouldEqual, 2)
			So(res.State.A.ActiveCount, ShouldEqual, 2)
			So(res.State.A.DisplayName, ShouldEqual, "Brownie")
		})
	})
}

func TestFoldMatchesReplay(t *testing.T) {
	Convey("Given a sequence applied one event at a time", t, func() {
		events := append(repeat(ev(model.ProfileA, model.KindStamp), 11),
			ev(model.ProfileA, model.KindPenalty),
			ev(model.ProfileB, model.KindStamp),
			ev(model.ProfileA, model.KindUndo),
			ev(model.ProfileA, model.KindUndo),
			ev(model.ProfileA, model.KindRedeemGift),
			ev(model.ProfileB, model.KindReset),
		)
		state := model.NewSystemState()
		for _, e := range events {
			state, _ = replay.FoldSystem(state, e)
		}

		Convey("Then it converges with the full replay", func() {
			So(state, ShouldResemble, replay.Replay(events))
		})
	})

	Convey("Given a state passed to Fold", t, func() {
		before := replay.Replay(repeat(ev(model.ProfileA, model.KindStamp), 3)).A
		snapshot := before.Clone()
		_ = replay.Fold(before, ev(model.ProfileA, model.KindPenalty))
		_ = replay.Fold(before, ev(model.ProfileA, model.KindUndo))

		Convey("Then the input is never mutated", func() {
			So(before, ShouldResemble, snapshot)
		})
	})

	Convey("Given an unknown kind passed to FoldSystem", t, func() {
		state := model.NewSystemState()
		next, ok := replay.FoldSystem(state, model.Event{Profile: model.ProfileA, Kind: "bogus"})

		Convey("Then it reports the skip", func() {
			So(ok, ShouldBeFalse)
			So(next, ShouldResemble, state)
		})
	})
}
