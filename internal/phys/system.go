package phys

import "gonum.org/v1/gonum/mat"

// Limits is an immutable snapshot of a system's box constraints, read once
// at problem construction.
type Limits struct {
	PosLower, PosUpper     []float64
	VelLower, VelUpper     []float64
	ForceLower, ForceUpper []float64
}

// Snapshot is the linearization of one forward step. Each block is a
// DxD matrix. The position-from-velocity map is implicit: dp'/dv = dt * VelVel
// because positions integrate the freshly updated velocity.
type Snapshot struct {
	// PosPos is the exact dp'/dp of the step, including the contribution of
	// the implicitly integrated velocity.
	PosPos *mat.Dense
	// VelPos is dv'/dp.
	VelPos *mat.Dense
	// VelVel is dv'/dv.
	VelVel *mat.Dense
	// VelForce is dv'/df.
	VelForce *mat.Dense
}

// System is a forward-dynamics engine for a controlled mechanical system.
// Step must be a pure function of its inputs: same state and force in, same
// next state and snapshot out.
type System interface {
	NumDofs() int
	Timestep() float64
	InitialPositions() []float64
	InitialVelocities() []float64
	Limits() Limits

	// Step advances one timestep with the given control force and returns
	// the next state together with the sensitivity snapshot of the step.
	Step(pos, vel, force []float64) (nextPos, nextVel []float64, snap *Snapshot)
}

func uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
