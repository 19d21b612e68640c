package experiment

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/simoninireland/epyc/def"
)

func TestSummarise(t *testing.T) {
	Convey("Summarise should reduce an inner Repeat's sub-records to summary statistics", t, func(c C) {
		inner := NewRepeat(&fakeExperiment{}, 5)
		summ := NewSummarise(inner, []string{"doubled"})
		p := def.Parameters{"n": def.NewInt(3)}

		Convey("A successful run emits mean/median/variance/min/max for each named field", func() {
			recs, err := summ.RunAt(p)
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			rec := recs[0]
			So(rec.R, ShouldContainKey, "doubled_mean")
			So(rec.R, ShouldContainKey, "doubled_median")
			So(rec.R, ShouldContainKey, "doubled_variance")
			So(rec.R, ShouldContainKey, "doubled_min")
			So(rec.R, ShouldContainKey, "doubled_max")

			mean, _ := rec.R["doubled_mean"].Float()
			So(mean, ShouldEqual, 6.0)
		})

		Convey("Underlying counts report total and successful sub-record counts", func() {
			recs, _ := summ.RunAt(p)
			total, _ := recs[0].R[MetaUnderlyingResults].Int()
			succ, _ := recs[0].R[MetaUnderlyingSuccessfulResults].Int()
			So(total, ShouldEqual, 5)
			So(succ, ShouldEqual, 5)
		})

		Convey("Failed sub-records are excluded from the statistics by default", func() {
			mixedInner := NewRepeat(&fakeExperiment{failAt: "do"}, 3)
			mixedSumm := NewSummarise(mixedInner, []string{"doubled"})
			recs, err := mixedSumm.RunAt(p)
			So(err, ShouldBeNil)

			rec := recs[0]
			succ, _ := rec.R[MetaUnderlyingSuccessfulResults].Int()
			So(succ, ShouldEqual, 0)
			So(rec.M.Succeeded(), ShouldBeFalse)
			So(rec.R, ShouldNotContainKey, "doubled_mean")
		})

		Convey("KeepOnFailure retains failed sub-records in the reduction", func() {
			mixedInner := NewRepeat(&fakeExperiment{failAt: "do"}, 3)
			mixedSumm := NewSummarise(mixedInner, []string{"doubled"})
			mixedSumm.KeepOnFailure = true
			recs, err := mixedSumm.RunAt(p)
			So(err, ShouldBeNil)
			total, _ := recs[0].R[MetaUnderlyingResults].Int()
			So(total, ShouldEqual, 3)
		})

		Convey("Run() dispatches to RunAt because Summarise implements Runnable", func() {
			recs, err := Run(summ, p)
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
		})
	})
}
