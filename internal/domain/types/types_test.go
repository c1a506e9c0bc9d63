package types_test

import (
	"testing"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/replay"
	types "github.com/okian/stampcard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewProfileView(t *testing.T) {
	Convey("Given a fresh profile", t, func() {
		v := types.NewProfileView(model.ProfileB, model.DefaultProfileState(model.ProfileB))

		Convey("Then no guarded action is available", func() {
			So(v.Profile, ShouldEqual, model.ProfileB)
			So(v.CanPenalize, ShouldBeFalse)
			So(v.CanUndo, ShouldBeFalse)
			So(v.CanRedeem, ShouldBeFalse)
			So(len(v.Grid.Slots), ShouldEqual, model.Threshold)
		})
	})

	Convey("Given a profile whose newest record is a penalty", t, func() {
		state := replay.Replay([]model.Event{
			{Profile: model.ProfileA, Kind: model.KindStamp},
			{Profile: model.ProfileA, Kind: model.KindStamp},
			{Profile: model.ProfileA, Kind: model.KindPenalty},
		}).A
		v := types.NewProfileView(model.ProfileA, state)

		Convey("Then undo is blocked but penalty and redeem are not", func() {
			So(v.CanUndo, ShouldBeFalse)
			So(v.CanPenalize, ShouldBeTrue)
			So(v.CanRedeem, ShouldBeTrue)
			So(v.ValidStamps, ShouldEqual, 1)
		})
	})
}

func TestSyncResult(t *testing.T) {
	Convey("Given sync results", t, func() {
		So(types.SyncResult{Applied: 3}.OK(), ShouldBeTrue)
		So(types.SyncResult{Error: "boom"}.OK(), ShouldBeFalse)
	})
}
