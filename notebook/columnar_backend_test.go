package notebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/cbor"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/errs"
)

func TestColumnarBackendRoundTrip(t *testing.T) {
	Convey("ColumnarBackend should persist and reload a notebook via CBOR", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nb.cbor")
		backend := NewColumnarBackend(path, "columnar")

		nb, err := backend.Load()
		So(err, ShouldBeNil)
		So(nb.Tags(), ShouldResemble, []string{DefaultTag})

		nb.AddResult(def.Record{
			P: def.Parameters{"n": def.NewInt(3)},
			R: def.Results{"out": def.NewFloat(1.5)},
			M: def.Metadata{def.MetaStatus: def.NewBool(true)},
		})
		nb.AddResult(def.Record{
			P: def.Parameters{"n": def.NewInt(4)},
			R: def.Results{"out": def.NewFloat(2.5)},
			M: def.Metadata{def.MetaStatus: def.NewBool(true)},
		})
		nb.AddPending(def.Parameters{"n": def.NewInt(5)})

		Convey("Loading a missing file starts a fresh notebook instead of erroring", func() {
			missing := NewColumnarBackend(filepath.Join(dir, "absent.cbor"), "n")
			fresh, err := missing.Load()
			So(err, ShouldBeNil)
			So(fresh.NumberOfPendingResults(), ShouldEqual, 0)
		})

		Convey("Save followed by Load reproduces the same result and pending counts", func() {
			So(backend.Save(nb), ShouldBeNil)

			reloaded, err := backend.Load()
			So(err, ShouldBeNil)
			rs, ok := reloaded.ResultSet(DefaultTag)
			So(ok, ShouldBeTrue)
			So(rs.NumberOfResults(), ShouldEqual, 2)
			So(rs.NumberOfPendingResults(), ShouldEqual, 1)

			recs := rs.Records()
			var sawThree, sawFour bool
			for _, rec := range recs {
				n, _ := rec.P["n"].Int()
				out, _ := rec.R["out"].Float()
				switch n {
				case 3:
					sawThree = true
					So(out, ShouldEqual, 1.5)
				case 4:
					sawFour = true
					So(out, ShouldEqual, 2.5)
				}
			}
			So(sawThree, ShouldBeTrue)
			So(sawFour, ShouldBeTrue)

			pending := rs.Pending()
			So(pending, ShouldHaveLength, 1)
			pn, _ := pending[0].P["n"].Int()
			So(pn, ShouldEqual, 5)
		})

		Convey("Save writes the container atomically via a temp file rename", func() {
			So(backend.Save(nb), ShouldBeNil)
			_, err := os.Stat(path)
			So(err, ShouldBeNil)
			_, err = os.Stat(path + ".tmp")
			So(err, ShouldNotBeNil)
		})

		Convey("A locked result set round-trips its locked flag", func() {
			nb.Finish()
			So(backend.Save(nb), ShouldBeNil)

			reloaded, err := backend.Load()
			So(err, ShouldBeNil)
			rs, _ := reloaded.ResultSet(DefaultTag)
			So(rs.Locked(), ShouldBeTrue)
		})
	})
}

func TestColumnarBackendUnsupportedVersion(t *testing.T) {
	Convey("Loading a container written by a newer format version should fail cleanly", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "future.cbor")

		future := NewColumnarBackend(path, "future")
		nb := New("future", "")
		So(future.Save(nb), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		var doc columnarDoc
		So(refmt.Unmarshal(cbor.DecodeOptions{}, data, &doc), ShouldBeNil)
		doc.Version = FormatVersion + 1
		bumped, err := refmt.Marshal(cbor.EncodeOptions{}, doc)
		So(err, ShouldBeNil)
		So(os.WriteFile(path, bumped, 0644), ShouldBeNil)

		_, err = future.Load()
		So(err, errs.ShouldHaveCategory, errs.NotebookVersion)
	})
}

func TestBuildTableRejectsRaggedArrays(t *testing.T) {
	Convey("buildTable should refuse array fields whose width varies across rows", t, func(c C) {
		schema := def.NewSchema()
		schema.Observe("xs", def.ArrayFloat)

		records := []def.Record{
			{P: def.Parameters{"xs": def.NewFloatArray([]float64{1, 2})}, R: def.Results{}, M: def.Metadata{}},
			{P: def.Parameters{"xs": def.NewFloatArray([]float64{1, 2, 3})}, R: def.Results{}, M: def.Metadata{}},
		}

		_, err := buildTable(records, schema)
		So(err, errs.ShouldHaveCategory, errs.ResultsStructure)
	})
}

func TestRecordsFromTableRoundTrip(t *testing.T) {
	Convey("recordsFromTable should reconstruct typed records from a column-major table", t, func(c C) {
		schema := def.NewSchema()
		records := []def.Record{
			{P: def.Parameters{"n": def.NewInt(1)}, R: def.Results{"out": def.NewFloat(2.5)}, M: def.Metadata{def.MetaStatus: def.NewBool(true)}},
		}
		schema.Observe("n", def.Int)
		schema.Observe("out", def.Float)
		schema.Observe(def.MetaStatus, def.Bool)

		tbl, err := buildTable(records, schema)
		So(err, ShouldBeNil)

		back, err := recordsFromTable(tbl, []string{"n"}, []string{"out"}, []string{def.MetaStatus})
		So(err, ShouldBeNil)
		So(back, ShouldHaveLength, 1)
		n, _ := back[0].P["n"].Int()
		So(n, ShouldEqual, 1)
		out, _ := back[0].R["out"].Float()
		So(out, ShouldEqual, 2.5)
	})
}
