package notebook

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/simoninireland/epyc/def"
)

func TestJSONBackendRoundTrip(t *testing.T) {
	Convey("JSONBackend should persist and reload a notebook losslessly", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nb.json")
		backend := NewJSONBackend(path, "round-trip")

		nb, err := backend.Load()
		So(err, ShouldBeNil)
		So(nb.Tags(), ShouldResemble, []string{DefaultTag})

		nb.AddResult(def.Record{
			P: def.Parameters{"n": def.NewInt(3)},
			R: def.Results{"out": def.NewFloat(1.5)},
			M: def.Metadata{def.MetaStatus: def.NewBool(true)},
		})
		nb.AddPending(def.Parameters{"n": def.NewInt(4)})

		Convey("Loading a missing file starts a fresh notebook instead of erroring", func() {
			missing := NewJSONBackend(filepath.Join(dir, "does-not-exist.json"), "n")
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
			So(rs.NumberOfResults(), ShouldEqual, 1)
			So(rs.NumberOfPendingResults(), ShouldEqual, 1)

			recs := rs.Records()
			n, _ := recs[0].P["n"].Int()
			So(n, ShouldEqual, 3)
			out, _ := recs[0].R["out"].Float()
			So(out, ShouldEqual, 1.5)
		})

		Convey("Save writes valid JSON atomically via a temp file rename", func() {
			So(backend.Save(nb), ShouldBeNil)
			_, err := os.Stat(path)
			So(err, ShouldBeNil)
			_, err = os.Stat(path + ".tmp")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestJSONBackendLegacyMigration(t *testing.T) {
	Convey("Loading a version-1 file should migrate it into the default tag", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "legacy.json")
		legacy := `{
			"description": "old notebook",
			"results": [
				{"parameters": {"n": 1}, "results": {"out": 2.5}, "metadata": {"status": true}}
			]
		}`
		So(os.WriteFile(path, []byte(legacy), 0644), ShouldBeNil)

		backend := NewJSONBackend(path, "legacy")
		nb, err := backend.Load()
		So(err, ShouldBeNil)
		So(nb.Tags(), ShouldResemble, []string{DefaultTag})

		rs, _ := nb.ResultSet(DefaultTag)
		So(rs.NumberOfResults(), ShouldEqual, 1)
	})
}

func TestJSONBackendUnsupportedVersion(t *testing.T) {
	Convey("Loading a notebook written by a newer format version should fail cleanly", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "future.json")
		So(os.WriteFile(path, []byte(`{"version": 99}`), 0644), ShouldBeNil)

		backend := NewJSONBackend(path, "future")
		_, err := backend.Load()
		So(err, ShouldNotBeNil)
	})
}
