package phys

import "gonum.org/v1/gonum/mat"

// SpringChain is a chain of point masses coupled to their neighbors (and
// to walls at both ends) by identical springs, each mass individually
// actuated. The dynamics are linear, so the per-step snapshot is exact and
// constant, which makes the chain a convenient reference system.
type SpringChain struct {
	Masses    int
	Mass      float64
	Stiffness float64
	Damping   float64
	Dt        float64

	MaxStretch float64
	MaxSpeed   float64
	MaxForce   float64

	InitPos []float64
	InitVel []float64
}

func NewSpringChain(masses int) *SpringChain {
	return &SpringChain{
		Masses:     masses,
		Mass:       1.0,
		Stiffness:  4.0,
		Damping:    0.2,
		Dt:         0.01,
		MaxStretch: 10.0,
		MaxSpeed:   50.0,
		MaxForce:   20.0,
		InitPos:    make([]float64, masses),
		InitVel:    make([]float64, masses),
	}
}

func (c *SpringChain) NumDofs() int      { return c.Masses }
func (c *SpringChain) Timestep() float64 { return c.Dt }

func (c *SpringChain) InitialPositions() []float64 {
	out := make([]float64, c.Masses)
	copy(out, c.InitPos)
	return out
}

func (c *SpringChain) InitialVelocities() []float64 {
	out := make([]float64, c.Masses)
	copy(out, c.InitVel)
	return out
}

func (c *SpringChain) Limits() Limits {
	n := c.Masses
	return Limits{
		PosLower:   uniform(n, -c.MaxStretch),
		PosUpper:   uniform(n, c.MaxStretch),
		VelLower:   uniform(n, -c.MaxSpeed),
		VelUpper:   uniform(n, c.MaxSpeed),
		ForceLower: uniform(n, -c.MaxForce),
		ForceUpper: uniform(n, c.MaxForce),
	}
}

// accel computes (-K q - damping v + u) / m for the tridiagonal stiffness
// coupling of the chain.
func (c *SpringChain) accel(pos, vel, force []float64) []float64 {
	n := c.Masses
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		spring := -2 * c.Stiffness * pos[i]
		if i > 0 {
			spring += c.Stiffness * pos[i-1]
		}
		if i < n-1 {
			spring += c.Stiffness * pos[i+1]
		}
		out[i] = (spring - c.Damping*vel[i] + force[i]) / c.Mass
	}
	return out
}

func (c *SpringChain) Step(pos, vel, force []float64) ([]float64, []float64, *Snapshot) {
	n := c.Masses
	accel := c.accel(pos, vel, force)

	nextVel := make([]float64, n)
	nextPos := make([]float64, n)
	for i := 0; i < n; i++ {
		nextVel[i] = vel[i] + c.Dt*accel[i]
		nextPos[i] = pos[i] + c.Dt*nextVel[i]
	}

	velPos := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		velPos.Set(i, i, -2*c.Stiffness*c.Dt/c.Mass)
		if i > 0 {
			velPos.Set(i, i-1, c.Stiffness*c.Dt/c.Mass)
		}
		if i < n-1 {
			velPos.Set(i, i+1, c.Stiffness*c.Dt/c.Mass)
		}
	}

	velVel := mat.NewDense(n, n, nil)
	velForce := mat.NewDense(n, n, nil)
	posPos := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		velVel.Set(i, i, 1-c.Damping*c.Dt/c.Mass)
		velForce.Set(i, i, c.Dt/c.Mass)
	}
	posPos.Scale(c.Dt, velPos)
	for i := 0; i < n; i++ {
		posPos.Set(i, i, 1+posPos.At(i, i))
	}

	snap := &Snapshot{PosPos: posPos, VelPos: velPos, VelVel: velVel, VelForce: velForce}
	return nextPos, nextVel, snap
}
