package trajectory

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Debug writes a human-readable dump of the problem size and the current
// trajectory parameters, including the states recorded by the last rollout.
func (p *Problem) Debug(w io.Writer) {
	fmt.Fprintf(w, "problem size: n=%d variables, m=%d constraints\n",
		p.layout.FlatDim, p.layout.ConstraintDim)
	fmt.Fprintf(w, "horizon: %d steps, %d shots of length %d\n",
		p.opts.Steps, p.layout.NumShots, p.opts.ShootingLength)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := 0; i < p.layout.NumShots; i++ {
		if i > 0 && p.roll != nil && p.roll.PreKnotPos[i] != nil {
			fmt.Fprintf(tw, "\t(end-pos)\t%v\n", p.roll.PreKnotPos[i])
			fmt.Fprintf(tw, "\t(end-vel)\t%v\n", p.roll.PreKnotVel[i])
		}
		fmt.Fprintf(tw, "knot %d\tpos\t%v\n", i, p.knotPos[i])
		fmt.Fprintf(tw, "\tvel\t%v\n", p.knotVel[i])
	}
	if p.roll != nil {
		fmt.Fprintf(tw, "\t(terminal-pos)\t%v\n", p.roll.TerminalPos)
		fmt.Fprintf(tw, "\t(terminal-vel)\t%v\n", p.roll.TerminalVel)
		fmt.Fprintf(tw, "loss\t%g\tknot loss %g\n", p.roll.Loss, p.roll.KnotLoss)
		for _, diag := range p.roll.Diagnostics {
			fmt.Fprintf(tw, "diag\t%s\n", diag)
		}
	}
	tw.Flush()
}
