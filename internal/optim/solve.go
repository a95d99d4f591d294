package optim

import (
	"fmt"
	"math"

	"github.com/curioloop/optimizer/numdiff"
	"github.com/curioloop/optimizer/slsqp"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/trajectory"
)

const (
	DefaultMaxIterations = 300
	DefaultAccuracy      = 1e-6
)

// Options configures one optimization run.
type Options struct {
	MaxIterations int
	Accuracy      float64
	// Progress, when set, is invoked after every objective evaluation.
	Progress func(eval int, loss float64)
}

// Result summarizes an optimization run. The optimized trajectory is left
// decoded into the problem's parameter store.
type Result struct {
	Loss        float64
	Converged   bool
	Iterations  int
	Evaluations int
}

// Solver drives a trajectory problem through SLSQP.
//
// SLSQP queries constraints one scalar row at a time, so the solver keeps a
// memo of g(x) and the densified Jacobian for the exact x being queried; the
// underlying problem still re-rolls on every distinct x. Callback errors
// abort the whole optimization: the first error is recorded and re-raised
// through the solver's recovery path, never substituted with a fallback
// value.
type Solver struct {
	prob *trajectory.Problem
	opts Options

	cacheX   []float64
	cacheG   []float64
	cacheJac *mat.Dense

	evals    int
	firstErr error
}

func NewSolver(p *trajectory.Problem, opts Options) *Solver {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Accuracy <= 0 {
		opts.Accuracy = DefaultAccuracy
	}
	return &Solver{prob: p, opts: opts}
}

// fail records the first callback error and unwinds into the solver, which
// recovers the panic and aborts the run.
func (s *Solver) fail(err error) {
	if s.firstErr == nil {
		s.firstErr = err
	}
	panic(err)
}

// refresh updates the constraint memo when x differs from the last query.
func (s *Solver) refresh(x []float64) error {
	if s.cacheX != nil && equal(s.cacheX, x) {
		return nil
	}
	g, err := s.prob.EvalConstraints(x)
	if err != nil {
		return err
	}
	vals, err := s.prob.EvalConstraintJacobian(x)
	if err != nil {
		return err
	}
	rows, cols := s.prob.SparsityPattern()
	if len(vals) != len(rows) {
		return fmt.Errorf("optim: %d jacobian values for %d pattern entries", len(vals), len(rows))
	}
	// Duplicate pattern entries sum (loop constraint on a tunable start).
	dense := mat.NewDense(s.prob.ConstraintDim(), s.prob.FlatDim(), nil)
	for i, v := range vals {
		dense.Set(rows[i], cols[i], dense.At(rows[i], cols[i])+v)
	}
	s.cacheX = append(s.cacheX[:0], x...)
	s.cacheG = g
	s.cacheJac = dense
	return nil
}

// objectiveGradient differentiates the rollout loss over the flat vector,
// scatters the result into the per-variable accumulators and reads it back
// out through the gradient encoding.
func (s *Solver) objectiveGradient(x []float64) ([]float64, error) {
	s.prob.ZeroGradients()

	n := s.prob.FlatDim()
	spec := numdiff.ApproxSpec{
		N:      n,
		M:      1,
		Method: numdiff.Central,
		Object: func(xp, y []float64) {
			f, err := s.prob.EvalObjective(xp)
			if err != nil {
				s.fail(err)
			}
			y[0] = f
		},
	}
	flat := make([]float64, n)
	if err := spec.Diff(x, flat); err != nil {
		return nil, fmt.Errorf("optim: objective gradient: %w", err)
	}

	if err := s.prob.ScatterGradient(flat); err != nil {
		return nil, err
	}
	// Differencing probed the store with perturbed vectors; restore x.
	if err := s.prob.Decode(x); err != nil {
		return nil, err
	}
	s.prob.Unroll()

	out := s.prob.Encode(trajectory.EncodeGradient)
	for i, v := range out {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("optim: objective gradient is NaN at index %d", i)
		}
	}
	return out, nil
}

// Solve runs SLSQP to convergence or iteration limit and decodes the
// solution back into the problem store.
func (s *Solver) Solve() (*Result, error) {
	n := s.prob.FlatDim()
	m := s.prob.ConstraintDim()

	lower := s.prob.Encode(trajectory.EncodeLowerBound)
	upper := s.prob.Encode(trajectory.EncodeUpperBound)
	bounds := make([]slsqp.Bound, n)
	for i := range bounds {
		bounds[i] = slsqp.Bound{Lower: lower[i], Upper: upper[i]}
	}

	objective := func(x, grad []float64) float64 {
		if grad != nil {
			gv, err := s.objectiveGradient(x)
			if err != nil {
				s.fail(err)
			}
			copy(grad, gv)
		}
		f, err := s.prob.EvalObjective(x)
		if err != nil {
			s.fail(err)
		}
		if grad == nil {
			s.evals++
			if s.opts.Progress != nil {
				s.opts.Progress(s.evals, f)
			}
		}
		return f
	}

	eqCons := make([]slsqp.Evaluation, m)
	for j := 0; j < m; j++ {
		row := j
		eqCons[j] = func(x, grad []float64) float64 {
			if err := s.refresh(x); err != nil {
				s.fail(err)
			}
			if grad != nil {
				for i := 0; i < n && i < len(grad); i++ {
					grad[i] = s.cacheJac.At(row, i)
				}
			}
			return s.cacheG[row]
		}
	}

	problem := slsqp.Problem{
		N:      n,
		Object: objective,
		EqCons: eqCons,
		Bounds: bounds,
		Stop: slsqp.Termination{
			Accuracy:      s.opts.Accuracy,
			MaxIterations: s.opts.MaxIterations,
		},
	}

	opt, err := problem.New()
	if err != nil {
		return nil, fmt.Errorf("optim: %w", err)
	}
	work := opt.Init()

	x0 := s.prob.Encode(trajectory.EncodeState)
	res := opt.Fit(x0, work)

	if s.firstErr != nil {
		return nil, s.firstErr
	}

	if err := s.prob.Decode(res.X); err != nil {
		return nil, err
	}
	s.prob.Unroll()

	return &Result{
		Loss:        res.F,
		Converged:   res.OK,
		Iterations:  res.NumIter,
		Evaluations: s.evals,
	}, nil
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
