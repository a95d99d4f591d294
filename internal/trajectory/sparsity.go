package trajectory

// SparsityPattern returns the (row, col) index pairs of every nonzero slot
// the Jacobian assembler produces, in the same order. It is derived purely
// from the layout, with no numeric work, and is stable across evaluations:
// congruence with EvalConstraintJacobian is a structural invariant, enforced
// by both sides walking segments and blocks in the same order.
func (p *Problem) SparsityPattern() (rows, cols []int) {
	d := p.layout.Dofs
	numShots := p.layout.NumShots

	negIdentity := func(rowTop, colTop int) {
		for i := 0; i < 2*d; i++ {
			rows = append(rows, rowTop+i)
			cols = append(cols, colTop+i)
		}
	}
	torqueBlock := func(rowTop, colTop int) {
		for r := 0; r < 2*d; r++ {
			for c := 0; c < d; c++ {
				rows = append(rows, rowTop+r)
				cols = append(cols, colTop+c)
			}
		}
	}
	phaseBlock := func(rowTop, colTop int) {
		for r := 0; r < 2*d; r++ {
			for c := 0; c < 2*d; c++ {
				rows = append(rows, rowTop+r)
				cols = append(cols, colTop+c)
			}
		}
	}
	// Torque blocks come in reverse chronological order, matching the
	// assembler's backward walk through the segment.
	fullJacobian := func(rowTop, seg int, includePhase bool) {
		for j := p.layout.ShotLen[seg] - 1; j >= 0; j-- {
			torqueBlock(rowTop, p.layout.TorqueX[seg]+j*d)
		}
		if includePhase {
			phaseBlock(rowTop, p.layout.KnotX[seg])
		}
	}

	if p.layout.HasEndpoint {
		fullJacobian(0, numShots-1, p.layout.KnotX[numShots-1] >= 0)
		if p.opts.EnforceLoop && p.opts.TuneStartingPoint {
			negIdentity(0, p.layout.KnotX[0])
		}
	}

	for i := 1; i < numShots; i++ {
		fullJacobian(p.layout.KnotG[i], i-1, p.layout.KnotX[i-1] >= 0)
		negIdentity(p.layout.KnotG[i], p.layout.KnotX[i])
	}

	return rows, cols
}

// patternSize counts the entries SparsityPattern will produce.
func (p *Problem) patternSize() int {
	d := p.layout.Dofs
	numShots := p.layout.NumShots

	segment := func(seg int, includePhase bool) int {
		n := p.layout.ShotLen[seg] * 2 * d * d
		if includePhase {
			n += 4 * d * d
		}
		return n
	}

	total := 0
	if p.layout.HasEndpoint {
		total += segment(numShots-1, p.layout.KnotX[numShots-1] >= 0)
		if p.opts.EnforceLoop && p.opts.TuneStartingPoint {
			total += 2 * d
		}
	}
	for i := 1; i < numShots; i++ {
		total += segment(i-1, p.layout.KnotX[i-1] >= 0)
		total += 2 * d
	}
	return total
}
