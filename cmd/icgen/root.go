package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tinapiao/icgen/internal/config"
)

// Exit codes.
//
const (
	exitUsage = 1
	exitPlan  = 2
	exitBuild = 3
	exitLint  = 4
)

// exitError carries the process exit code of a failed command.
//
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Cause() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code, err}
}

func exitCode(err error) int {
	for err != nil {
		if e, ok := err.(*exitError); ok {
			return e.code
		}
		c, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = c.Cause()
	}
	return exitUsage
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "icgen",
		Short: "Parametric finger-array placement and routing.",
		Long: `icgen places unit-cell templates on grids and routes them into ` +
			`inverter chains and capacitor arrays. Designs are written as ` +
			`record streams.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return errors.Wrap(config.LoadEnv(), "environment")
		},
	}
	root.AddCommand(newPlanCmd(), newBuildCmd(), newLintCmd(), newSweepCmd())
	return root
}
