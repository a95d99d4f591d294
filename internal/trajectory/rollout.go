package trajectory

import (
	"fmt"
	"math"

	"github.com/san-kum/trajopt/internal/phys"
)

// Rollout is the result of simulating the whole horizon once. Snapshots are
// owned by the rollout and overwritten on the next Unroll; nothing outside
// the problem may retain them across rollouts.
type Rollout struct {
	// Loss is the accumulated running cost plus terminal cost. This is the
	// quantity the solver minimizes.
	Loss float64
	// KnotLoss is the soft exponential barrier over knot-continuity
	// violations. Tracked for diagnostics, not part of the solver objective.
	KnotLoss float64

	// PreKnotPos/PreKnotVel[i] (i>0) hold the state reached by simulation
	// at the end of segment i-1, before the reset to knot i.
	PreKnotPos [][]float64
	PreKnotVel [][]float64

	TerminalPos []float64
	TerminalVel []float64

	Snapshots []*phys.Snapshot

	// Positions/Velocities trace the simulated state at every timestep
	// (post-reset at knot boundaries), plus the terminal state.
	Positions  [][]float64
	Velocities [][]float64

	// Diagnostics records non-fatal anomalies, currently NaN introductions.
	Diagnostics []string
}

// Unroll simulates the horizon from knot 0, resetting to each knot anchor at
// segment boundaries and recording per-step sensitivity snapshots.
func (p *Problem) Unroll() *Rollout {
	steps := p.opts.Steps
	numShots := p.layout.NumShots
	k := p.opts.BarrierStrength

	r := &Rollout{
		PreKnotPos: make([][]float64, numShots),
		PreKnotVel: make([][]float64, numShots),
		Snapshots:  make([]*phys.Snapshot, steps),
		Positions:  make([][]float64, 0, steps+1),
		Velocities: make([][]float64, 0, steps+1),
	}

	pos := clone(p.knotPos[0])
	vel := clone(p.knotVel[0])

	for t := 0; t < steps; t++ {
		if t > 0 && t%p.opts.ShootingLength == 0 {
			knot := t / p.opts.ShootingLength
			// Timesteps past the last shot have no knot to reset to.
			if knot < numShots {
				r.PreKnotPos[knot] = clone(pos)
				r.PreKnotVel[knot] = clone(vel)
				r.KnotLoss += math.Exp(k*normDiff(p.knotPos[knot], pos)) +
					math.Exp(10*k*normDiff(p.knotVel[knot], vel))

				pos = clone(p.knotPos[knot])
				vel = clone(p.knotVel[knot])

				if hasNaN(pos) || hasNaN(vel) {
					r.Diagnostics = append(r.Diagnostics,
						fmt.Sprintf("NaN introduced at knot[%d]", knot))
				}
			}
		}

		torque := p.maskedTorque(t)
		r.Positions = append(r.Positions, clone(pos))
		r.Velocities = append(r.Velocities, clone(vel))

		r.Loss += p.stepLoss(pos, vel, torque)

		nextPos, nextVel, snap := p.sys.Step(pos, vel, torque)
		r.Snapshots[t] = snap

		wasFinite := !hasNaN(pos) && !hasNaN(vel)
		if wasFinite && (hasNaN(nextPos) || hasNaN(nextVel)) {
			r.Diagnostics = append(r.Diagnostics,
				fmt.Sprintf("NaN introduced at timestep[%d]", t))
		}

		pos, vel = nextPos, nextVel
	}

	r.Loss += p.finalLoss(pos, vel)
	r.TerminalPos = clone(pos)
	r.TerminalVel = clone(vel)
	r.Positions = append(r.Positions, clone(pos))
	r.Velocities = append(r.Velocities, clone(vel))

	if p.opts.EnforceLoop {
		r.KnotLoss += math.Exp(k*normDiff(pos, p.knotPos[0])) +
			math.Exp(10*k*normDiff(vel, p.knotVel[0]))
	} else if p.opts.FinalState != nil {
		d := p.layout.Dofs
		r.KnotLoss += math.Exp(k*normDiff(pos, p.opts.FinalState[:d])) +
			math.Exp(10*k*normDiff(vel, p.opts.FinalState[d:]))
	}

	p.roll = r
	return r
}

// EvalObjective returns the rollout loss for the trajectory encoded by x.
func (p *Problem) EvalObjective(x []float64) (float64, error) {
	if err := checkFinite("f(x)", x); err != nil {
		return 0, err
	}
	if err := p.ensureFreshRollout(x); err != nil {
		return 0, err
	}
	if math.IsNaN(p.roll.Loss) {
		return 0, fmt.Errorf("trajectory: f(x) is NaN")
	}
	return p.roll.Loss, nil
}
