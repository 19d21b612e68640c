package main

import (
	"github.com/urfave/cli"
)

func removeCommand() cli.Command {
	return cli.Command{
		Name:      "remove",
		Usage:     "Delete a result set from a notebook. Refuses if the notebook is locked.",
		ArgsUsage: "<notebook-file> <tag>",
		Action: func(ctx *cli.Context) error {
			args := ctx.Args()
			if len(args) != 2 {
				panic(badArgs("`epyc remove` requires a notebook file and a tag"))
			}
			path, tag := args[0], args[1]

			nb, backend := openNotebook(path)
			if err := nb.DeleteResultSet(tag); err != nil {
				panic(notebookError("%s", err))
			}
			if err := backend.Save(nb); err != nil {
				panic(notebookError("could not save %q: %s", path, err))
			}
			return nil
		},
	}
}
