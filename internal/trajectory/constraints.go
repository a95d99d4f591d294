package trajectory

import "fmt"

// EvalConstraints computes the residual vector g(x): for each knot i>0 the
// shooting gap (pre-knot state minus knot anchor), prefixed by the loop or
// terminal residual when one is active. All residuals are equalities.
func (p *Problem) EvalConstraints(x []float64) ([]float64, error) {
	if err := checkFinite("g(x)", x); err != nil {
		return nil, err
	}
	if err := p.ensureFreshRollout(x); err != nil {
		return nil, err
	}

	d := p.layout.Dofs
	out := make([]float64, p.layout.ConstraintDim)
	cursor := 0

	writeDiff := func(a, b []float64) {
		for i := 0; i < d; i++ {
			out[cursor+i] = a[i] - b[i]
		}
		cursor += d
	}

	if p.opts.EnforceLoop {
		writeDiff(p.roll.TerminalPos, p.knotPos[0])
		writeDiff(p.roll.TerminalVel, p.knotVel[0])
	} else if p.opts.FinalState != nil {
		writeDiff(p.roll.TerminalPos, p.opts.FinalState[:d])
		writeDiff(p.roll.TerminalVel, p.opts.FinalState[d:])
	}

	for i := 1; i < p.layout.NumShots; i++ {
		writeDiff(p.roll.PreKnotPos[i], p.knotPos[i])
		writeDiff(p.roll.PreKnotVel[i], p.knotVel[i])
	}

	if cursor != len(out) {
		panic("trajectory: constraint cursor out of sync with layout")
	}
	if hasNaN(out) {
		return nil, fmt.Errorf("trajectory: g(x) produced NaN")
	}
	return out, nil
}
