package main

import (
	"fmt"

	"github.com/urfave/cli"
)

func showCommand() cli.Command {
	return cli.Command{
		Name:      "show",
		Usage:     "List a notebook's result sets, counts and schemas",
		ArgsUsage: "<notebook-file>",
		Action: func(ctx *cli.Context) error {
			path := requirePath(ctx)
			nb, _ := openNotebook(path)

			fmt.Printf("notebook %q (%s)\n", nb.Name(), nb.Description())
			fmt.Printf("  current tag: %s\n", nb.CurrentTag())
			for _, tag := range nb.Tags() {
				rs, ok := nb.ResultSet(tag)
				if !ok {
					continue
				}
				marker := " "
				if tag == nb.CurrentTag() {
					marker = "*"
				}
				fmt.Printf("%s %s: %q, %d results, %d pending, locked=%t\n",
					marker, tag, rs.Description(), rs.NumberOfResults(), rs.NumberOfPendingResults(), rs.Locked())
				for _, f := range rs.SchemaReal().Fields() {
					fmt.Printf("      %s: %s\n", f.Name, f.Kind)
				}
			}
			return nil
		},
	}
}
