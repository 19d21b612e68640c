package main

import (
	"github.com/urfave/cli"
)

func selectCommand() cli.Command {
	return cli.Command{
		Name:      "select",
		Usage:     "Change a notebook's current tag",
		ArgsUsage: "<notebook-file> <tag>",
		Action: func(ctx *cli.Context) error {
			args := ctx.Args()
			if len(args) != 2 {
				panic(badArgs("`epyc select` requires a notebook file and a tag"))
			}
			path, tag := args[0], args[1]

			nb, backend := openNotebook(path)
			if err := nb.Select(tag); err != nil {
				panic(notebookError("%s", err))
			}
			if err := backend.Save(nb); err != nil {
				panic(notebookError("could not save %q: %s", path, err))
			}
			return nil
		},
	}
}
