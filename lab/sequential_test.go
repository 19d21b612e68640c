package lab

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/design"
	"github.com/simoninireland/epyc/errs"
	"github.com/simoninireland/epyc/experiment"
	"github.com/simoninireland/epyc/notebook"
)

type doubleExperiment struct {
	experiment.Base
}

func (doubleExperiment) ClassName() string { return "double" }

func (doubleExperiment) Do(p def.Parameters) ([]def.Results, error) {
	n, _ := p["n"].Int()
	return []def.Results{{"doubled": def.NewInt(n * 2)}}, nil
}

func TestSequentialRunExperiment(t *testing.T) {
	Convey("Sequential should run every design point in order and append its records", t, func(c C) {
		nb := notebook.New("nb", "")
		l := NewSequential(nb)
		l.SetRange("n", design.Range{def.NewInt(1), def.NewInt(2), def.NewInt(3)})

		err := l.RunExperiment(doubleExperiment{})
		So(err, ShouldBeNil)

		rs := nb.Current()
		So(rs.NumberOfResults(), ShouldEqual, 3)

		seen := map[int64]bool{}
		for _, rec := range rs.Records() {
			n, _ := rec.P["n"].Int()
			d, _ := rec.R["doubled"].Int()
			So(d, ShouldEqual, n*2)
			seen[n] = true
		}
		So(seen, ShouldContainKey, int64(1))
		So(seen, ShouldContainKey, int64(2))
		So(seen, ShouldContainKey, int64(3))
	})

	Convey("Set installs a singleton range", t, func(c C) {
		nb := notebook.New("nb", "")
		l := NewSequential(nb)
		l.Set("n", def.NewInt(7))

		points, err := l.Experiments()
		So(err, ShouldBeNil)
		So(points, ShouldHaveLength, 1)
		n, _ := points[0]["n"].Int()
		So(n, ShouldEqual, 7)
	})

	Convey("Clear and Del remove ranges", t, func(c C) {
		nb := notebook.New("nb", "")
		l := NewSequential(nb)
		l.SetRange("n", design.Range{def.NewInt(1)})
		l.SetRange("m", design.Range{def.NewInt(2)})

		l.Del("m")
		points, _ := l.Experiments()
		So(points, ShouldHaveLength, 1)

		l.Clear()
		points, _ = l.Experiments()
		So(points, ShouldBeEmpty)
	})
}

func TestCreateWith(t *testing.T) {
	Convey("CreateWith should build a set once and reuse it on later calls", t, func(c C) {
		nb := notebook.New("nb", "")
		l := NewSequential(nb)

		calls := 0
		ctor := func(lb Lab) error {
			calls++
			lb.SetRange("n", design.Range{def.NewInt(1)})
			return lb.RunExperiment(doubleExperiment{})
		}

		err := l.CreateWith("built", ctor, "a built set", false, false)
		So(err, ShouldBeNil)
		So(calls, ShouldEqual, 1)

		err = l.CreateWith("built", ctor, "a built set", false, false)
		So(err, ShouldBeNil)
		So(calls, ShouldEqual, 1)
	})

	Convey("CreateWith locks the set afterward when lockAfter is set", t, func(c C) {
		nb := notebook.New("nb", "")
		l := NewSequential(nb)
		ctor := func(lb Lab) error {
			lb.SetRange("n", design.Range{def.NewInt(1)})
			return lb.RunExperiment(doubleExperiment{})
		}

		err := l.CreateWith("locked", ctor, "", true, false)
		So(err, ShouldBeNil)

		rs, ok := nb.ResultSet("locked")
		So(ok, ShouldBeTrue)
		So(rs.Locked(), ShouldBeTrue)
	})

	Convey("A ctor failure deletes the partially-built set", t, func(c C) {
		nb := notebook.New("nb", "")
		l := NewSequential(nb)
		ctor := func(lb Lab) error {
			return errs.New(errs.Design, "ctor deliberately fails")
		}

		err := l.CreateWith("doomed", ctor, "", false, false)
		So(err, ShouldNotBeNil)
		_, ok := nb.ResultSet("doomed")
		So(ok, ShouldBeFalse)
	})
}
