package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// EvalConstraintJacobian computes dg/dx as a sparse value list aligned,
// entry for entry, with SparsityPattern. Each constraint block's values are
// produced by walking its shooting segment backward and chaining the per-step
// sensitivity snapshots into segment-end sensitivities.
func (p *Problem) EvalConstraintJacobian(x []float64) ([]float64, error) {
	if err := checkFinite("jac g(x)", x); err != nil {
		return nil, err
	}
	if err := p.ensureFreshRollout(x); err != nil {
		return nil, err
	}

	numShots := p.layout.NumShots
	out := make([]float64, 0, p.patternSize())

	if p.layout.HasEndpoint {
		out = p.appendSegmentJacobian(out, numShots-1, p.layout.KnotX[numShots-1] >= 0)
		// With a tunable start, the loop residual also ties directly to
		// knot 0's own variables.
		if p.opts.EnforceLoop && p.opts.TuneStartingPoint {
			out = appendNegativeIdentity(out, p.layout.Dofs)
		}
	}

	for i := 1; i < numShots; i++ {
		out = p.appendSegmentJacobian(out, i-1, p.layout.KnotX[i-1] >= 0)
		out = appendNegativeIdentity(out, p.layout.Dofs)
	}

	if len(out) != p.patternSize() {
		panic("trajectory: jacobian values out of sync with sparsity pattern")
	}
	if hasNaN(out) {
		return nil, fmt.Errorf("trajectory: jac g(x) produced NaN")
	}
	return out, nil
}

// appendSegmentJacobian emits the Jacobian of segment seg's end state with
// respect to the segment's torques (reverse chronological order) and, when
// includePhase is set, its starting knot phase.
//
// The running accumulators track the sensitivity of the segment-end state to
// the "next" state of the step currently being visited:
//
//	pp = d pos_end / d pos_next    pv = d pos_end / d vel_next
//	vp = d vel_end / d pos_next    vv = d vel_end / d vel_next
//
// starting at (I, 0, 0, I) and composed backward one step at a time.
func (p *Problem) appendSegmentJacobian(out []float64, seg int, includePhase bool) []float64 {
	d := p.layout.Dofs
	dt := p.sys.Timestep()

	start := seg * p.layout.ShootingLength
	end := start + p.layout.ShootingLength
	if seg == p.layout.NumShots-1 {
		// The last segment runs to the end of the horizon, including
		// trailing steps that carry no decision variables.
		end = p.layout.Steps
	}
	decisionEnd := start + p.layout.ShotLen[seg]

	pp := eye(d)
	pv := mat.NewDense(d, d, nil)
	vp := mat.NewDense(d, d, nil)
	vv := eye(d)

	for t := end - 1; t >= start; t-- {
		snap := p.roll.Snapshots[t]

		// Local maps of this step: position rows pick up the velocity
		// update through the implicit dt factor.
		posnextPos := snap.PosPos
		velnextPos := snap.VelPos
		velnextVel := snap.VelVel
		velnextForce := snap.VelForce

		var posnextVel, posnextForce mat.Dense
		posnextVel.Scale(dt, velnextVel)
		posnextForce.Scale(dt, velnextForce)

		if t < decisionEnd {
			posendForce := mulAdd(pp, &posnextForce, pv, velnextForce)
			velendForce := mulAdd(vp, &posnextForce, vv, velnextForce)
			out = appendDense(out, posendForce)
			out = appendDense(out, velendForce)
		}

		// Chain-rule composition: all four updates read the pre-update
		// accumulators.
		newPP := mulAdd(pp, posnextPos, pv, velnextPos)
		newPV := mulAdd(pp, &posnextVel, pv, velnextVel)
		newVP := mulAdd(vp, posnextPos, vv, velnextPos)
		newVV := mulAdd(vp, &posnextVel, vv, velnextVel)
		pp, pv, vp, vv = newPP, newPV, newVP, newVV
	}

	if includePhase {
		// Rows span the [pos | vel] phase of the segment's starting knot.
		out = appendDensePair(out, pp, pv)
		out = appendDensePair(out, vp, vv)
	}
	return out
}

// DenseConstraintJacobian materializes the sparse Jacobian into an m-by-n
// matrix. Duplicate pattern entries sum: with a loop constraint on a tunable
// start, the endpoint segment's phase block and the -I block share knot 0's
// columns. Cross-check utility for tests.
func (p *Problem) DenseConstraintJacobian(x []float64) (*mat.Dense, error) {
	rows, cols := p.SparsityPattern()
	vals, err := p.EvalConstraintJacobian(x)
	if err != nil {
		return nil, err
	}
	dense := mat.NewDense(p.layout.ConstraintDim, p.layout.FlatDim, nil)
	for i, v := range vals {
		dense.Set(rows[i], cols[i], dense.At(rows[i], cols[i])+v)
	}
	return dense, nil
}

// BruteForceConstraintJacobian approximates dg/dx by forward differences.
// Cross-check utility for tests.
func (p *Problem) BruteForceConstraintJacobian(x []float64) (*mat.Dense, error) {
	const eps = 1e-7

	g0, err := p.EvalConstraints(x)
	if err != nil {
		return nil, err
	}
	g0 = clone(g0)

	dense := mat.NewDense(p.layout.ConstraintDim, p.layout.FlatDim, nil)
	for col := 0; col < p.layout.FlatDim; col++ {
		xp := clone(x)
		xp[col] += eps
		gp, err := p.EvalConstraints(xp)
		if err != nil {
			return nil, err
		}
		for row := range gp {
			dense.Set(row, col, (gp[row]-g0[row])/eps)
		}
	}

	// Leave the store matching the queried x.
	if err := p.Decode(x); err != nil {
		return nil, err
	}
	p.Unroll()
	return dense, nil
}

// BruteForceObjectiveGradient approximates df/dx by forward differences.
// Cross-check utility for tests.
func (p *Problem) BruteForceObjectiveGradient(x []float64) ([]float64, error) {
	const eps = 1e-6

	f0, err := p.EvalObjective(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, p.layout.FlatDim)
	for i := range out {
		xp := clone(x)
		xp[i] += eps
		fp, err := p.EvalObjective(xp)
		if err != nil {
			return nil, err
		}
		out[i] = (fp - f0) / eps
	}
	if err := p.Decode(x); err != nil {
		return nil, err
	}
	p.Unroll()
	return out, nil
}

func eye(d int) *mat.Dense {
	m := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// mulAdd returns a*b + c*d.
func mulAdd(a, b, c, d mat.Matrix) *mat.Dense {
	var s, t mat.Dense
	s.Mul(a, b)
	t.Mul(c, d)
	s.Add(&s, &t)
	return &s
}

// appendDense emits a matrix row-major.
func appendDense(out []float64, m *mat.Dense) []float64 {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// appendDensePair emits [a | b] row-major, each row spanning a's columns
// then b's.
func appendDensePair(out []float64, a, b *mat.Dense) []float64 {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, a.At(i, j))
		}
		for j := 0; j < c; j++ {
			out = append(out, b.At(i, j))
		}
	}
	return out
}

func appendNegativeIdentity(out []float64, d int) []float64 {
	for i := 0; i < 2*d; i++ {
		out = append(out, -1)
	}
	return out
}
