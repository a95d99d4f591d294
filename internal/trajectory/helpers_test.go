package trajectory

import (
	"math"

	"github.com/san-kum/trajopt/internal/phys"
)

func effortLoss(pos, vel, torque []float64) float64 {
	sum := 0.0
	for _, u := range torque {
		sum += 1e-3 * u * u
	}
	return sum
}

func settleLoss(pos, vel []float64) float64 {
	sum := 0.0
	for i := range pos {
		sum += pos[i]*pos[i] + 0.1*vel[i]*vel[i]
	}
	return sum
}

func newChainProblem(dofs int, opts Options) *Problem {
	sys := phys.NewSpringChain(dofs)
	p, err := NewProblem(sys, effortLoss, settleLoss, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// seedState fills the flat vector with a deterministic, non-trivial pattern.
func seedState(p *Problem) []float64 {
	x := make([]float64, p.FlatDim())
	for i := range x {
		x[i] = 0.3 * math.Sin(float64(i)*0.7)
	}
	return x
}
