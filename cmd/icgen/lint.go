package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tinapiao/icgen"
)

func newLintCmd() *cobra.Command {
	var library string
	cmd := &cobra.Command{
		Use:   "lint <stream-file>",
		Short: "Check the invariants of a record stream.",
		Long: `Check the invariants of a record stream. With --library, vias at ` +
			`route corners must join the routing layers of the route's grid ` +
			`in that template library ("-" selects the built-in catalog).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var grids *icgen.Registry
			if library != "" {
				lib, err := openLibrary(library)
				if err != nil {
					return withCode(exitLint, err)
				}
				grids = lib.Grids()
			}
			f, err := os.Open(args[0])
			if err != nil {
				return withCode(exitLint, errors.WithStack(err))
			}
			defer f.Close()
			errs, err := icgen.LintStream(f, grids)
			if err != nil {
				return withCode(exitLint, errors.Wrap(err, args[0]))
			}
			w := cmd.OutOrStdout()
			for _, e := range errs {
				fmt.Fprintf(w, "%s: %v\n", args[0], e)
			}
			if len(errs) > 0 {
				return withCode(exitLint, errors.Errorf("%s: %d violations", args[0], len(errs)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&library, "library", "l", "", "template library whose grids give the routing layers")
	return cmd
}
