package main

import (
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/simoninireland/epyc/notebook"
)

func openNotebook(path string) (*notebook.Notebook, *notebook.ColumnarBackend) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	backend := notebook.NewColumnarBackend(path, name)
	nb, err := backend.Load()
	if err != nil {
		panic(notebookError("could not open %q: %s", path, err))
	}
	return nb, backend
}

func requirePath(ctx *cli.Context) string {
	args := ctx.Args()
	if len(args) != 1 {
		panic(badArgs("expected exactly one notebook file argument"))
	}
	return args[0]
}
