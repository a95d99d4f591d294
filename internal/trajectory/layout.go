package trajectory

// Layout locates every decision variable and every constraint row of a
// shooting problem. It is computed once and shared by the encoder, the
// constraint evaluator and the Jacobian assembler, so all three agree on
// offsets by construction.
type Layout struct {
	Dofs           int
	Steps          int
	ShootingLength int
	NumShots       int

	TuneStartingPoint bool
	// HasEndpoint is true when a loop-closure or fixed-terminal-state
	// constraint occupies the first 2*Dofs constraint rows.
	HasEndpoint bool

	FlatDim       int
	ConstraintDim int

	// KnotX[i] is the offset of knot i's phase in the flat vector, -1 when
	// the knot is not a decision variable (knot 0 with a fixed start).
	KnotX []int
	// KnotG[i] is the offset of knot i's gap-constraint block, -1 for knot 0.
	KnotG []int
	// TorqueX[i] is the offset of shot i's first torque column.
	TorqueX []int
	// ShotLen[i] is the number of decision torques in shot i. Timesteps past
	// NumShots*ShootingLength are simulated but carry no decision variables.
	ShotLen []int
}

func NewLayout(dofs, steps, shootingLength int, tuneStart, hasEndpoint bool) Layout {
	if shootingLength > steps {
		shootingLength = steps
	}
	numShots := steps / shootingLength

	l := Layout{
		Dofs:              dofs,
		Steps:             steps,
		ShootingLength:    shootingLength,
		NumShots:          numShots,
		TuneStartingPoint: tuneStart,
		HasEndpoint:       hasEndpoint,
		KnotX:             make([]int, numShots),
		KnotG:             make([]int, numShots),
		TorqueX:           make([]int, numShots),
		ShotLen:           make([]int, numShots),
	}

	cursor := 0
	torqueCursor := 0
	for i := 0; i < numShots; i++ {
		if i > 0 || tuneStart {
			l.KnotX[i] = cursor
			cursor += 2 * dofs
		} else {
			l.KnotX[i] = -1
		}
		shotLen := shootingLength
		if rest := steps - torqueCursor; rest < shotLen {
			shotLen = rest
		}
		l.TorqueX[i] = cursor
		l.ShotLen[i] = shotLen
		cursor += shotLen * dofs
		torqueCursor += shotLen
	}
	l.FlatDim = cursor

	g := 0
	if hasEndpoint {
		g += 2 * dofs
	}
	for i := 0; i < numShots; i++ {
		if i > 0 {
			l.KnotG[i] = g
			g += 2 * dofs
		} else {
			l.KnotG[i] = -1
		}
	}
	l.ConstraintDim = g

	return l
}

// DecisionSteps is the number of timesteps whose torques are decision
// variables.
func (l Layout) DecisionSteps() int {
	total := 0
	for _, n := range l.ShotLen {
		total += n
	}
	return total
}
