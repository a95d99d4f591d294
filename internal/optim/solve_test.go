package optim

import (
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/phys"
	"github.com/san-kum/trajopt/internal/trajectory"
)

func chainProblem(t *testing.T, opts trajectory.Options) *trajectory.Problem {
	t.Helper()
	sys := phys.NewSpringChain(1)
	p, err := trajectory.NewProblem(sys,
		func(pos, vel, torque []float64) float64 {
			return 1e-3 * torque[0] * torque[0]
		},
		func(pos, vel []float64) float64 {
			dp := pos[0] - 0.3
			return dp*dp + 0.1*vel[0]*vel[0]
		},
		opts)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewSolverDefaults(t *testing.T) {
	p := chainProblem(t, trajectory.Options{Steps: 10, ShootingLength: 5})
	s := NewSolver(p, Options{})
	if s.opts.MaxIterations != DefaultMaxIterations {
		t.Errorf("max iterations = %d, want %d", s.opts.MaxIterations, DefaultMaxIterations)
	}
	if s.opts.Accuracy != DefaultAccuracy {
		t.Errorf("accuracy = %g, want %g", s.opts.Accuracy, DefaultAccuracy)
	}
}

func TestSolveReachesTarget(t *testing.T) {
	// Target chosen within reach of the horizon: 10 steps of dt=0.01 under
	// the chain's force bounds cover about 0.1 of displacement.
	p := chainProblem(t, trajectory.Options{
		Steps:          10,
		ShootingLength: 5,
		FinalState:     []float64{0.02, 0},
	})

	progressed := 0
	s := NewSolver(p, Options{
		MaxIterations: 200,
		Progress:      func(eval int, loss float64) { progressed++ },
	})
	res, err := s.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	if math.IsNaN(res.Loss) || math.IsInf(res.Loss, 0) {
		t.Fatalf("loss = %g", res.Loss)
	}
	if progressed == 0 || res.Evaluations == 0 {
		t.Error("progress callback never fired")
	}

	// The optimized trajectory is left decoded in the store: constraint
	// residuals at the solution must be (near) feasible.
	g, err := p.EvalConstraints(p.Encode(trajectory.EncodeState))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range g {
		if math.Abs(v) > 1e-4 {
			t.Errorf("residual %d = %g at the solution", i, v)
		}
	}
	r := p.LastRollout()
	if math.Abs(r.TerminalPos[0]-0.02) > 1e-3 {
		t.Errorf("terminal position %g, want 0.02", r.TerminalPos[0])
	}
}

func TestSolveUnconstrainedSettle(t *testing.T) {
	p := chainProblem(t, trajectory.Options{Steps: 10, ShootingLength: 10})
	start, err := p.EvalObjective(p.Encode(trajectory.EncodeState))
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewSolver(p, Options{MaxIterations: 100}).Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Loss > start+1e-12 {
		t.Errorf("loss increased: %g -> %g", start, res.Loss)
	}
}
