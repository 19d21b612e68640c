package farm

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/experiment"
)

type addExperiment struct {
	experiment.Base
}

func (addExperiment) ClassName() string { return "add" }

func (addExperiment) Do(p def.Parameters) ([]def.Results, error) {
	n, _ := p["n"].Int()
	return []def.Results{{"doubled": def.NewInt(n * 2)}}, nil
}

func drainUntil(f *Local, n int, timeout time.Duration) []Outcome {
	deadline := time.Now().Add(timeout)
	var all []Outcome
	for time.Now().Before(deadline) {
		out, _ := f.PullReady()
		all = append(all, out...)
		if len(all) >= n {
			return all
		}
		time.Sleep(time.Millisecond)
	}
	return all
}

func TestLocalFarmSubmitAndDrain(t *testing.T) {
	Convey("Local should run submitted jobs across its engine pool and report completions", t, func(c C) {
		f := NewLocal(2)
		defer f.Close()

		Convey("EngineCount reflects the configured pool size", func() {
			So(f.EngineCount(), ShouldEqual, 2)
		})

		Convey("A submitted job eventually appears as a Completed outcome", func() {
			id, err := f.Submit(addExperiment{}, def.Parameters{"n": def.NewInt(5)})
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)

			outcomes := drainUntil(f, 1, time.Second)
			So(outcomes, ShouldHaveLength, 1)
			So(outcomes[0].Status, ShouldEqual, Completed)
			So(outcomes[0].JobID, ShouldEqual, id)
			d, _ := outcomes[0].Recs[0].R["doubled"].Int()
			So(d, ShouldEqual, 10)
		})

		Convey("PullReady drains each outcome exactly once", func() {
			f.Submit(addExperiment{}, def.Parameters{"n": def.NewInt(1)})
			drainUntil(f, 1, time.Second)
			again, err := f.PullReady()
			So(err, ShouldBeNil)
			So(again, ShouldBeEmpty)
		})

		Convey("Cancelling an unknown job id returns false, not an error", func() {
			ok, err := f.Cancel("not-a-real-job")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Imports is a no-op that always succeeds", func() {
			So(f.Imports([]string{"anything"}), ShouldBeNil)
		})
	})
}

func TestLocalFarmClosed(t *testing.T) {
	Convey("A closed farm refuses further submissions", t, func(c C) {
		f := NewLocal(1)
		f.Close()
		_, err := f.Submit(addExperiment{}, def.Parameters{"n": def.NewInt(1)})
		So(err, errs.ShouldHaveCategory, errs.Dispatch)
	})
}
