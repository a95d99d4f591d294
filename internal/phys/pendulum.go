package phys

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pendulum is a single damped pendulum driven by a joint torque, stepped
// with semi-implicit Euler.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
	Dt      float64

	MaxAngle float64
	MaxSpeed float64
	MaxForce float64

	Theta float64
	Omega float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:     1.0,
		Length:   1.0,
		Damping:  0.1,
		Gravity:  9.81,
		Dt:       0.01,
		MaxAngle: 4 * math.Pi,
		MaxSpeed: 50.0,
		MaxForce: 20.0,
	}
}

func (p *Pendulum) NumDofs() int      { return 1 }
func (p *Pendulum) Timestep() float64 { return p.Dt }

func (p *Pendulum) InitialPositions() []float64  { return []float64{p.Theta} }
func (p *Pendulum) InitialVelocities() []float64 { return []float64{p.Omega} }

func (p *Pendulum) Limits() Limits {
	return Limits{
		PosLower:   []float64{-p.MaxAngle},
		PosUpper:   []float64{p.MaxAngle},
		VelLower:   []float64{-p.MaxSpeed},
		VelUpper:   []float64{p.MaxSpeed},
		ForceLower: []float64{-p.MaxForce},
		ForceUpper: []float64{p.MaxForce},
	}
}

func (p *Pendulum) Step(pos, vel, force []float64) ([]float64, []float64, *Snapshot) {
	theta := pos[0]
	omega := vel[0]
	inertia := p.Mass * p.Length * p.Length

	accel := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + force[0]) / inertia

	nextOmega := omega + p.Dt*accel
	nextTheta := theta + p.Dt*nextOmega

	dAccelPos := -p.Gravity * math.Cos(theta) / p.Length
	dAccelVel := -p.Damping / inertia

	velPos := p.Dt * dAccelPos
	velVel := 1 + p.Dt*dAccelVel
	velForce := p.Dt / inertia
	posPos := 1 + p.Dt*velPos

	snap := &Snapshot{
		PosPos:   mat.NewDense(1, 1, []float64{posPos}),
		VelPos:   mat.NewDense(1, 1, []float64{velPos}),
		VelVel:   mat.NewDense(1, 1, []float64{velVel}),
		VelForce: mat.NewDense(1, 1, []float64{velForce}),
	}
	return []float64{nextTheta}, []float64{nextOmega}, snap
}
