package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/stage"
)

func newPlanCmd() *cobra.Command {
	var (
		firstN, firstP, stages int
		fan                    float64
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the stage plan of a tapered chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stage.New(icgen.NMOS, firstN, fan, stages)
			if err != nil {
				return withCode(exitPlan, err)
			}
			p, err := stage.New(icgen.PMOS, firstP, fan, stages)
			if err != nil {
				return withCode(exitPlan, err)
			}
			return printPlan(cmd.OutOrStdout(), n, p)
		},
	}
	f := cmd.Flags()
	f.IntVar(&firstN, "first-n", 0, "NMOS fingers of the first stage")
	f.IntVar(&firstP, "first-p", 0, "PMOS fingers of the first stage")
	f.Float64Var(&fan, "fan", 1, "fan-out factor between stages")
	f.IntVar(&stages, "stages", 1, "number of stages")
	return cmd
}

func mix(m []stage.Variant) string {
	s := make([]string, len(m))
	for i, v := range m {
		s[i] = v.String()
	}
	return strings.Join(s, " ")
}

// printPlan prints both plans in generation order, one stage per row.
//
func printPlan(w io.Writer, n, p *stage.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tNMOS\tNMOS CELLS\tPMOS\tPMOS CELLS")
	ns, ps := n.Stages(), p.Stages()
	for i := range ns {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\n", ns[i].Index, ns[i].Fingers, mix(ns[i].Mix), ps[i].Fingers, mix(ps[i].Mix))
	}
	fmt.Fprintf(tw, "total\t%d\t\t%d\t\n", n.Total(), p.Total())
	return tw.Flush()
}
