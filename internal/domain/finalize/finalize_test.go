package finalize_test

import (
	"testing"
	"time"

	"github.com/courseops/regrade/internal/domain/finalize"
	"github.com/courseops/regrade/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func score(points float64) *model.Score {
	return &model.Score{Points: points, At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestBlend(t *testing.T) {
	Convey("Given the default finalizer", t, func() {
		f := finalize.New()

		Convey("When both windows are present", func() {
			grade := f.Blend(model.ScoreRecord{UID: "a", Orig: score(80), Makeup: score(100)})

			Convey("Then the final grade is their mean", func() {
				So(grade.Points, ShouldEqual, 90)
				So(grade.UID, ShouldEqual, "a")
			})
		})

		Convey("When only the original window is present", func() {
			grade := f.Blend(model.ScoreRecord{UID: "a", Orig: score(80)})

			So(grade.Points, ShouldEqual, 80)
		})

		Convey("When only the makeup window is present", func() {
			grade := f.Blend(model.ScoreRecord{UID: "a", Makeup: score(80)})

			Convey("Then the makeup score counts in full", func() {
				So(grade.Points, ShouldEqual, 80)
			})
		})

		Convey("When neither window is present", func() {
			grade := f.Blend(model.ScoreRecord{UID: "a"})

			So(grade.Points, ShouldEqual, 0)
		})

		Convey("And the record travels with the grade", func() {
			rec := model.ScoreRecord{UID: "a", Orig: score(80), TotalPoints: 100}
			grade := f.Blend(rec)

			So(grade.Record.TotalPoints, ShouldEqual, 100)
			So(grade.Record.Orig, ShouldEqual, rec.Orig)
		})
	})

	Convey("Given a finalizer that halves makeup-only scores", t, func() {
		f := finalize.New(finalize.WithHalvedMakeupOnly(true))

		Convey("When only the makeup window is present", func() {
			grade := f.Blend(model.ScoreRecord{UID: "a", Makeup: score(80)})

			So(grade.Points, ShouldEqual, 40)
		})

		Convey("When both windows are present the mean is unaffected", func() {
			grade := f.Blend(model.ScoreRecord{UID: "a", Orig: score(80), Makeup: score(100)})

			So(grade.Points, ShouldEqual, 90)
		})
	})
}

func TestChanged(t *testing.T) {
	Convey("Given the default finalizer", t, func() {
		f := finalize.New()

		Convey("A record with no makeup score is unchanged", func() {
			So(f.Changed(model.ScoreRecord{Orig: score(80)}), ShouldBeFalse)
		})

		Convey("A makeup-only record is always a change", func() {
			So(f.Changed(model.ScoreRecord{Makeup: score(80)}), ShouldBeTrue)
		})

		Convey("Equal windows within epsilon are unchanged", func() {
			rec := model.ScoreRecord{Orig: score(80), Makeup: score(80 + 1e-12)}
			So(f.Changed(rec), ShouldBeFalse)
		})

		Convey("A real improvement is a change", func() {
			rec := model.ScoreRecord{Orig: score(80), Makeup: score(85)}
			So(f.Changed(rec), ShouldBeTrue)
		})
	})

	Convey("Given a finalizer with a coarse epsilon", t, func() {
		f := finalize.New(finalize.WithChangeEpsilon(0.5))

		Convey("Sub-threshold drift is ignored", func() {
			rec := model.ScoreRecord{Orig: score(80), Makeup: score(80.4)}
			So(f.Changed(rec), ShouldBeFalse)
		})

		Convey("Above-threshold drift is reported", func() {
			rec := model.ScoreRecord{Orig: score(80), Makeup: score(80.6)}
			So(f.Changed(rec), ShouldBeTrue)
		})
	})
}
