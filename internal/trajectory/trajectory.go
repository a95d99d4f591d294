package trajectory

import (
	"fmt"

	"github.com/san-kum/trajopt/internal/phys"
)

// StepLoss is the running cost accumulated at every timestep.
type StepLoss func(pos, vel, torque []float64) float64

// FinalLoss is the terminal cost evaluated once at the end of the horizon.
type FinalLoss func(pos, vel []float64) float64

// EncodeKind selects which flat-vector variant Encode produces.
type EncodeKind int

const (
	EncodeState EncodeKind = iota
	EncodeGradient
	EncodeLowerBound
	EncodeUpperBound
)

// Options configures a shooting problem.
type Options struct {
	Steps             int
	ShootingLength    int
	TuneStartingPoint bool
	// EnforceLoop constrains the terminal state to match knot 0. Mutually
	// exclusive with FinalState.
	EnforceLoop bool
	// FinalState, when non-nil, is a 2*Dofs target (positions then
	// velocities) the terminal state is constrained to.
	FinalState       []float64
	DisableActuators []int
	// BarrierStrength scales the soft exponential knot barrier. Defaults
	// to 1 when zero.
	BarrierStrength float64
}

// Problem is the single source of truth for the decision variables of one
// trajectory optimization problem: knot phases and per-step torques.
type Problem struct {
	sys       phys.System
	stepLoss  StepLoss
	finalLoss FinalLoss
	opts      Options
	layout    Layout

	knotPos [][]float64
	knotVel [][]float64
	torques [][]float64
	mask    []float64

	knotPosGrad [][]float64
	knotVelGrad [][]float64
	torqueGrad  [][]float64

	lastX []float64
	roll  *Rollout
}

func NewProblem(sys phys.System, stepLoss StepLoss, finalLoss FinalLoss, opts Options) (*Problem, error) {
	if sys == nil {
		return nil, fmt.Errorf("trajectory: system is required")
	}
	if stepLoss == nil || finalLoss == nil {
		return nil, fmt.Errorf("trajectory: step and final loss are required")
	}
	if opts.Steps <= 0 {
		return nil, fmt.Errorf("trajectory: steps must be positive, got %d", opts.Steps)
	}
	if opts.ShootingLength <= 0 {
		return nil, fmt.Errorf("trajectory: shooting length must be positive, got %d", opts.ShootingLength)
	}
	if opts.ShootingLength > opts.Steps {
		opts.ShootingLength = opts.Steps
	}
	if opts.EnforceLoop && opts.FinalState != nil {
		return nil, fmt.Errorf("trajectory: enforce_loop and final_state are mutually exclusive")
	}

	d := sys.NumDofs()
	if opts.FinalState != nil && len(opts.FinalState) != 2*d {
		return nil, fmt.Errorf("trajectory: final state needs %d values, got %d", 2*d, len(opts.FinalState))
	}
	for _, j := range opts.DisableActuators {
		if j < 0 || j >= d {
			return nil, fmt.Errorf("trajectory: disabled actuator %d out of range [0,%d)", j, d)
		}
	}
	if opts.BarrierStrength == 0 {
		opts.BarrierStrength = 1
	}

	hasEndpoint := opts.EnforceLoop || opts.FinalState != nil
	layout := NewLayout(d, opts.Steps, opts.ShootingLength, opts.TuneStartingPoint, hasEndpoint)

	p := &Problem{
		sys:       sys,
		stepLoss:  stepLoss,
		finalLoss: finalLoss,
		opts:      opts,
		layout:    layout,

		knotPos: make([][]float64, layout.NumShots),
		knotVel: make([][]float64, layout.NumShots),
		torques: make([][]float64, opts.Steps),
		mask:    make([]float64, d),

		knotPosGrad: make([][]float64, layout.NumShots),
		knotVelGrad: make([][]float64, layout.NumShots),
		torqueGrad:  make([][]float64, opts.Steps),
	}

	p.knotPos[0] = clone(sys.InitialPositions())
	p.knotVel[0] = clone(sys.InitialVelocities())
	for i := 1; i < layout.NumShots; i++ {
		p.knotPos[i] = make([]float64, d)
		p.knotVel[i] = make([]float64, d)
	}
	for t := range p.torques {
		p.torques[t] = make([]float64, d)
		p.torqueGrad[t] = make([]float64, d)
	}
	for i := range p.knotPosGrad {
		p.knotPosGrad[i] = make([]float64, d)
		p.knotVelGrad[i] = make([]float64, d)
	}

	for i := range p.mask {
		p.mask[i] = 1
	}
	for _, j := range opts.DisableActuators {
		p.mask[j] = 0
	}

	return p, nil
}

func (p *Problem) Layout() Layout       { return p.layout }
func (p *Problem) FlatDim() int         { return p.layout.FlatDim }
func (p *Problem) ConstraintDim() int   { return p.layout.ConstraintDim }
func (p *Problem) System() phys.System  { return p.sys }
func (p *Problem) Options() Options     { return p.opts }
func (p *Problem) LastRollout() *Rollout { return p.roll }

// SetKnot overwrites knot i's anchor phase.
func (p *Problem) SetKnot(i int, pos, vel []float64) {
	copy(p.knotPos[i], pos)
	copy(p.knotVel[i], vel)
}

// SetTorque overwrites the torque at timestep t.
func (p *Problem) SetTorque(t int, torque []float64) {
	copy(p.torques[t], torque)
}

// maskedTorque applies the static actuator mask: disabled actuators are
// forced to zero regardless of the stored value.
func (p *Problem) maskedTorque(t int) []float64 {
	out := make([]float64, len(p.mask))
	for i := range out {
		out[i] = p.torques[t][i] * p.mask[i]
	}
	return out
}

// Controls returns the effective (masked) torque sequence over the horizon.
func (p *Problem) Controls() [][]float64 {
	out := make([][]float64, p.opts.Steps)
	for t := range out {
		out[t] = p.maskedTorque(t)
	}
	return out
}

// Encode flattens the requested variant of the decision variables. Bound
// variants read the system's limits, the gradient variant reads the
// accumulators filled by ScatterGradient (zero if never computed).
func (p *Problem) Encode(kind EncodeKind) []float64 {
	lim := p.sys.Limits()
	out := make([]float64, p.layout.FlatDim)
	d := p.layout.Dofs

	cursor := 0
	torqueCursor := 0
	for i := 0; i < p.layout.NumShots; i++ {
		if p.layout.KnotX[i] >= 0 {
			switch kind {
			case EncodeGradient:
				copy(out[cursor:], p.knotPosGrad[i])
				copy(out[cursor+d:], p.knotVelGrad[i])
			case EncodeLowerBound:
				copy(out[cursor:], lim.PosLower)
				copy(out[cursor+d:], lim.VelLower)
			case EncodeUpperBound:
				copy(out[cursor:], lim.PosUpper)
				copy(out[cursor+d:], lim.VelUpper)
			default:
				copy(out[cursor:], p.knotPos[i])
				copy(out[cursor+d:], p.knotVel[i])
			}
			cursor += 2 * d
		}
		for j := 0; j < p.layout.ShotLen[i]; j++ {
			switch kind {
			case EncodeGradient:
				copy(out[cursor:], p.torqueGrad[torqueCursor])
			case EncodeLowerBound:
				copy(out[cursor:], lim.ForceLower)
			case EncodeUpperBound:
				copy(out[cursor:], lim.ForceUpper)
			default:
				copy(out[cursor:], p.torques[torqueCursor])
			}
			cursor += d
			torqueCursor++
		}
	}
	return out
}

// Decode writes a flat state vector back into the structured store.
func (p *Problem) Decode(x []float64) error {
	if len(x) != p.layout.FlatDim {
		return fmt.Errorf("trajectory: decode expects %d values, got %d", p.layout.FlatDim, len(x))
	}
	d := p.layout.Dofs
	cursor := 0
	torqueCursor := 0
	for i := 0; i < p.layout.NumShots; i++ {
		if p.layout.KnotX[i] >= 0 {
			copy(p.knotPos[i], x[cursor:cursor+d])
			copy(p.knotVel[i], x[cursor+d:cursor+2*d])
			cursor += 2 * d
		}
		for j := 0; j < p.layout.ShotLen[i]; j++ {
			copy(p.torques[torqueCursor], x[cursor:cursor+d])
			cursor += d
			torqueCursor++
		}
	}
	return nil
}

// ZeroGradients clears every per-variable gradient accumulator.
func (p *Problem) ZeroGradients() {
	for i := range p.knotPosGrad {
		zero(p.knotPosGrad[i])
		zero(p.knotVelGrad[i])
	}
	for t := range p.torqueGrad {
		zero(p.torqueGrad[t])
	}
}

// ScatterGradient distributes a flat objective gradient into the
// per-variable accumulators, the inverse of Encode(EncodeGradient).
func (p *Problem) ScatterGradient(grad []float64) error {
	if len(grad) != p.layout.FlatDim {
		return fmt.Errorf("trajectory: gradient expects %d values, got %d", p.layout.FlatDim, len(grad))
	}
	d := p.layout.Dofs
	cursor := 0
	torqueCursor := 0
	for i := 0; i < p.layout.NumShots; i++ {
		if p.layout.KnotX[i] >= 0 {
			copy(p.knotPosGrad[i], grad[cursor:cursor+d])
			copy(p.knotVelGrad[i], grad[cursor+d:cursor+2*d])
			cursor += 2 * d
		}
		for j := 0; j < p.layout.ShotLen[i]; j++ {
			copy(p.torqueGrad[torqueCursor], grad[cursor:cursor+d])
			cursor += d
			torqueCursor++
		}
	}
	return nil
}

// ensureFreshRollout re-simulates the horizon for the queried x. The cached
// rollout is never trusted across queries: the store may have been mutated
// between solver callbacks, so every evaluation re-rolls.
func (p *Problem) ensureFreshRollout(x []float64) error {
	if err := p.Decode(x); err != nil {
		return err
	}
	p.lastX = append(p.lastX[:0], x...)
	p.Unroll()
	return nil
}
