package model_test

import (
	"errors"
	"testing"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseProfile(t *testing.T) {
	convey.Convey("Given profile identifiers", t, func() {
		convey.Convey("When parsing known ids in any case", func() {
			a, errA := model.ParseProfile("a")
			b, errB := model.ParseProfile(" B ")

			convey.Convey("Then they resolve to the fixed profiles", func() {
				convey.So(errA, convey.ShouldBeNil)
				convey.So(errB, convey.ShouldBeNil)
				convey.So(a, convey.ShouldEqual, model.ProfileA)
				convey.So(b, convey.ShouldEqual, model.ProfileB)
			})
		})

		convey.Convey("When parsing an unknown id", func() {
			_, err := model.ParseProfile("C")

			convey.Convey("Then ErrUnknownProfile is returned", func() {
				convey.So(errors.Is(err, model.ErrUnknownProfile), convey.ShouldBeTrue)
			})
		})
	})
}

func TestEventKinds(t *testing.T) {
	convey.Convey("Given the wire names of event kinds", t, func() {
		convey.Convey("When every known kind is parsed", func() {
			convey.Convey("Then each one round-trips", func() {
				for _, k := range model.EventKinds {
					parsed, err := model.ParseEventKind(string(k))
					convey.So(err, convey.ShouldBeNil)
					convey.So(parsed, convey.ShouldEqual, k)
				}
			})
		})

		convey.Convey("When an unknown kind is parsed", func() {
			_, err := model.ParseEventKind("double_stamp")

			convey.Convey("Then ErrUnknownKind is returned", func() {
				convey.So(errors.Is(err, model.ErrUnknownKind), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPresent(t *testing.T) {
	convey.Convey("Given optional text values from the log", t, func() {
		convey.So(model.Present("Mochi"), convey.ShouldBeTrue)
		convey.So(model.Present(""), convey.ShouldBeFalse)
		convey.So(model.Present("undefined"), convey.ShouldBeFalse)
		convey.So(model.Present("null"), convey.ShouldBeFalse)
		convey.So(model.Present("  "), convey.ShouldBeFalse)
	})
}

func TestCatalog(t *testing.T) {
	convey.Convey("Given the stamp catalog", t, func() {
		convey.Convey("When looking up a selectable stamp", func() {
			v, err := model.LookupVariant("panda")

			convey.Convey("Then the entry is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(v.Label, convey.ShouldEqual, "Panda")
			})
		})

		convey.Convey("When looking up the default star", func() {
			_, err := model.LookupVariant(model.DefaultVariant)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When looking up a retired id", func() {
			_, err := model.LookupVariant("dragon")

			convey.Convey("Then it is unknown but still has a glyph", func() {
				convey.So(errors.Is(err, model.ErrUnknownVariant), convey.ShouldBeTrue)
				convey.So(model.Glyph("dragon"), convey.ShouldEqual, model.Glyph(model.DefaultVariant))
			})
		})
	})
}

func TestSystemState(t *testing.T) {
	convey.Convey("Given a fresh system state", t, func() {
		s := model.NewSystemState()

		convey.Convey("Then both profiles start at their defaults", func() {
			convey.So(s.A.DisplayName, convey.ShouldEqual, "Brownie")
			convey.So(s.B.DisplayName, convey.ShouldEqual, "Snowy")
			convey.So(s.A.History, convey.ShouldBeEmpty)
		})

		convey.Convey("When a clone is modified", func() {
			s.A.History = append(s.A.History, model.StampRecord{Kind: model.RecordStamp, Variant: "cat"})
			c := s.Clone()
			c.A.History[0].Kind = model.RecordPenalty

			convey.Convey("Then the original history is untouched", func() {
				convey.So(s.A.History[0].Kind, convey.ShouldEqual, model.RecordStamp)
			})
		})

		convey.Convey("When setting a profile", func() {
			b := s.Profile(model.ProfileB)
			b.ActiveCount = 3
			s.Set(model.ProfileB, b)

			convey.Convey("Then only that profile changes", func() {
				convey.So(s.Profile(model.ProfileB).ActiveCount, convey.ShouldEqual, 3)
				convey.So(s.Profile(model.ProfileA).ActiveCount, convey.ShouldEqual, 0)
			})
		})
	})
}
