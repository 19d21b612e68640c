package main

import (
	"github.com/urfave/cli"
)

func copyCommand() cli.Command {
	return cli.Command{
		Name:      "copy",
		Usage:     "Duplicate a result set from one notebook file into another",
		ArgsUsage: "<src-file> <src-tag> <dst-file> <dst-tag>",
		Action: func(ctx *cli.Context) error {
			args := ctx.Args()
			if len(args) != 4 {
				panic(badArgs("`epyc copy` requires a source file, source tag, destination file and destination tag"))
			}
			srcPath, srcTag, dstPath, dstTag := args[0], args[1], args[2], args[3]

			src, _ := openNotebook(srcPath)
			rs, ok := src.ResultSet(srcTag)
			if !ok {
				panic(notebookError("no such result set %q in %q", srcTag, srcPath))
			}

			dst, dstBackend := openNotebook(dstPath)
			if err := dst.AddResultSet(dstTag, rs.Description()); err != nil {
				panic(notebookError("%s", err))
			}
			if err := dst.Select(dstTag); err != nil {
				panic(notebookError("%s", err))
			}

			for _, rec := range rs.Records() {
				if err := dst.AddResult(rec); err != nil {
					panic(notebookError("%s", err))
				}
			}
			for _, pr := range rs.Pending() {
				if _, err := dst.AddPending(pr.P); err != nil {
					panic(notebookError("%s", err))
				}
			}

			if err := dstBackend.Save(dst); err != nil {
				panic(notebookError("could not save %q: %s", dstPath, err))
			}
			return nil
		},
	}
}
