/*
Command epyc operates on a columnar notebook file from outside any
running experiment: listing sets, changing the current tag, removing a
set, or copying one between files. Uses the `App.Run` shape from
github.com/urfave/cli, with an ErrExit panic/recover translating
errors into fixed exit codes.
*/
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "epyc"
	app.Usage = "Inspect and manage epyc notebook files."
	app.Version = "0.1.0"

	app.Commands = []cli.Command{
		showCommand(),
		selectCommand(),
		removeCommand(),
		copyCommand(),
	}

	app.CommandNotFound = func(ctx *cli.Context, command string) {
		panic(badArgs("%q is not an epyc subcommand", command))
	}

	code := run(app, os.Args)
	os.Exit(code)
}

func run(app *cli.App, args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*ErrExit); ok {
				fmt.Fprintln(os.Stderr, "epyc:", ee.Message)
				code = ee.Code
				return
			}
			fmt.Fprintln(os.Stderr, "epyc: unexpected panic:", r)
			code = EXIT_UNKNOWNPANIC
		}
	}()

	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, "epyc:", err)
		return EXIT_BADARGS
	}
	return EXIT_SUCCESS
}
