package main

import (
	"path/filepath"
	"testing"

	"github.com/urfave/cli"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/simoninireland/epyc/def"
	"github.com/simoninireland/epyc/notebook"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "epyc"
	app.Commands = []cli.Command{
		showCommand(),
		selectCommand(),
		removeCommand(),
		copyCommand(),
	}
	app.CommandNotFound = func(ctx *cli.Context, command string) {
		panic(badArgs("%q is not an epyc subcommand", command))
	}
	return app
}

func writeNotebook(t *testing.T, path string) {
	backend := notebook.NewColumnarBackend(path, filepath.Base(path))
	nb, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	nb.AddResult(def.Record{
		P: def.Parameters{"n": def.NewInt(1)},
		R: def.Results{"out": def.NewFloat(2.0)},
		M: def.Metadata{def.MetaStatus: def.NewBool(true)},
	})
	if err := backend.Save(nb); err != nil {
		t.Fatal(err)
	}
}

func TestExitHelpers(t *testing.T) {
	Convey("badArgs and notebookError should carry the right exit codes", t, func(c C) {
		be := badArgs("bad %s", "input")
		So(be.Code, ShouldEqual, EXIT_BADARGS)
		So(be.Error(), ShouldEqual, "bad input")

		ne := notebookError("broken %s", "notebook")
		So(ne.Code, ShouldEqual, EXIT_NOTEBOOK)
		So(ne.Error(), ShouldEqual, "broken notebook")
	})
}

func TestRunShowCommand(t *testing.T) {
	Convey("show should succeed against a valid notebook file", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nb.cbor")
		writeNotebook(t, path)

		code := run(newApp(), []string{"epyc", "show", path})
		So(code, ShouldEqual, EXIT_SUCCESS)
	})
}

func TestRunSelectCommand(t *testing.T) {
	Convey("select should persist the new current tag", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nb.cbor")
		writeNotebook(t, path)

		backend := notebook.NewColumnarBackend(path, "nb")
		nb, _ := backend.Load()
		nb.AddResultSet("alt", "alternative")
		backend.Save(nb)

		code := run(newApp(), []string{"epyc", "select", path, "alt"})
		So(code, ShouldEqual, EXIT_SUCCESS)

		reloaded, err := backend.Load()
		So(err, ShouldBeNil)
		So(reloaded.CurrentTag(), ShouldEqual, "alt")
	})

	Convey("select with the wrong number of arguments exits with EXIT_BADARGS", t, func(c C) {
		code := run(newApp(), []string{"epyc", "select", "only-one-arg"})
		So(code, ShouldEqual, EXIT_BADARGS)
	})
}

func TestRunRemoveCommand(t *testing.T) {
	Convey("remove should delete the named result set", t, func(c C) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nb.cbor")
		writeNotebook(t, path)

		backend := notebook.NewColumnarBackend(path, "nb")
		nb, _ := backend.Load()
		nb.AddResultSet("alt", "")
		backend.Save(nb)

		code := run(newApp(), []string{"epyc", "remove", path, "alt"})
		So(code, ShouldEqual, EXIT_SUCCESS)

		reloaded, _ := backend.Load()
		_, ok := reloaded.ResultSet("alt")
		So(ok, ShouldBeFalse)
	})
}

func TestRunCopyCommand(t *testing.T) {
	Convey("copy should duplicate a result set into another notebook file", t, func(c C) {
		dir := t.TempDir()
		srcPath := filepath.Join(dir, "src.cbor")
		dstPath := filepath.Join(dir, "dst.cbor")
		writeNotebook(t, srcPath)

		code := run(newApp(), []string{"epyc", "copy", srcPath, notebook.DefaultTag, dstPath, "copied"})
		So(code, ShouldEqual, EXIT_SUCCESS)

		dstBackend := notebook.NewColumnarBackend(dstPath, "dst")
		dst, err := dstBackend.Load()
		So(err, ShouldBeNil)
		rs, ok := dst.ResultSet("copied")
		So(ok, ShouldBeTrue)
		So(rs.NumberOfResults(), ShouldEqual, 1)
	})
}

func TestRunUnknownSubcommand(t *testing.T) {
	Convey("an unknown subcommand exits with EXIT_BADARGS", t, func(c C) {
		code := run(newApp(), []string{"epyc", "bogus"})
		So(code, ShouldEqual, EXIT_BADARGS)
	})
}
