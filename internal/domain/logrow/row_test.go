package logrow

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/stampcard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given a log body from the sheet", t, func() {
		body := []byte(`[
			{"profile":"A","userName":"Mochi","avatar":"undefined","type":"stamp","stampId":"cat","timestamp":"2026-01-02T03:04:05.000Z"},
			{"profile":"B","type":"penalty","timestamp":1767323045000},
			{"profile":"Z","type":"stamp","stampId":null,"timestamp":"soon"},
			"garbage",
			42,
			{"profile":"A","type":"double_stamp"},
			{"profile":"A","type":"redeem_gift","x":0,"y":0}
		]`)

		Convey("When it is decoded", func() {
			b, err := Decode(body)

			Convey("Then good rows become events and bad rows are counted", func() {
				So(err, ShouldBeNil)
				So(len(b.Events), ShouldEqual, 4)
				So(b.Skipped, ShouldEqual, 3)
			})

			Convey("And fields are mapped onto the event", func() {
				first := b.Events[0]
				So(first.Profile, ShouldEqual, model.ProfileA)
				So(first.Kind, ShouldEqual, model.KindStamp)
				So(first.DisplayName, ShouldEqual, "Mochi")
				So(model.Present(first.AvatarRef), ShouldBeFalse)
				So(first.OccurredAt, ShouldEqual, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
			})

			Convey("And numeric timestamps are read as Unix milliseconds", func() {
				So(b.Events[1].Profile, ShouldEqual, model.ProfileB)
				So(b.Events[1].OccurredAt.UnixMilli(), ShouldEqual, int64(1767323045000))
			})

			Convey("And unknown profiles fold into A", func() {
				So(b.Events[2].Profile, ShouldEqual, model.ProfileA)
				So(b.Events[2].Variant, ShouldEqual, "")
				So(b.Events[2].OccurredAt.IsZero(), ShouldBeTrue)
			})
		})
	})

	Convey("Given rows whose legacy x and y cells are not integers", t, func() {
		body := []byte(`[
			{"type":"stamp","x":0,"y":0},
			{"type":"stamp","x":"","y":""},
			{"type":"stamp","x":1.5,"y":null},
			{"type":"stamp","x":{"nested":true}}
		]`)

		Convey("When it is decoded", func() {
			b, err := Decode(body)

			Convey("Then every row is kept", func() {
				So(err, ShouldBeNil)
				So(len(b.Events), ShouldEqual, 4)
				So(b.Skipped, ShouldEqual, 0)
			})
		})
	})

	Convey("Given bodies that are not arrays", t, func() {
		for _, body := range []string{`{"error":"quota"}`, `null`, `"text"`} {
			_, err := Decode([]byte(body))
			So(errors.Is(err, ErrNotArray), ShouldBeTrue)
		}
	})

	Convey("Given a truncated body", t, func() {
		_, err := Decode([]byte(`[{"profile":"A"`))

		Convey("Then a decode error is returned", func() {
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("Given an event produced by a user action", t, func() {
		e := model.Event{
			Profile:     model.ProfileB,
			Kind:        model.KindUndo,
			Variant:     "frog",
			DisplayName: "Snowy",
			AvatarRef:   "https://example.com/a.png",
			OccurredAt:  time.Date(2026, 5, 6, 7, 8, 9, 120_000_000, time.FixedZone("X", 3600)),
		}

		Convey("When it is marshalled", func() {
			raw, err := Marshal(e)
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)

			Convey("Then the sheet columns are written", func() {
				So(fields["type"], ShouldEqual, "undo_stamp")
				So(fields["profile"], ShouldEqual, "B")
				So(fields["stampId"], ShouldEqual, "frog")
				So(fields["timestamp"], ShouldEqual, "2026-05-06T06:08:09.120Z")
				So(fields["x"], ShouldEqual, float64(0))
			})

			Convey("And decoding it yields the same event", func() {
				b, err := Decode(append(append([]byte("["), raw...), ']'))
				So(err, ShouldBeNil)
				So(b.Events[0], ShouldResemble, model.Event{
					Profile:     e.Profile,
					Kind:        e.Kind,
					Variant:     e.Variant,
					DisplayName: e.DisplayName,
					AvatarRef:   e.AvatarRef,
					OccurredAt:  e.OccurredAt.UTC(),
				})
			})
		})
	})
}
