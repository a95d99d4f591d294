package trajectory

import (
	"math"
	"testing"
)

func jacobianConfigs() map[string]struct {
	dofs int
	opts Options
} {
	return map[string]struct {
		dofs int
		opts Options
	}{
		"two-shots":        {1, Options{Steps: 20, ShootingLength: 10}},
		"five-shots":       {1, Options{Steps: 25, ShootingLength: 5}},
		"tune-start":       {1, Options{Steps: 20, ShootingLength: 10, TuneStartingPoint: true}},
		"loop":             {1, Options{Steps: 20, ShootingLength: 10, EnforceLoop: true}},
		"loop-tune":        {1, Options{Steps: 20, ShootingLength: 10, EnforceLoop: true, TuneStartingPoint: true}},
		"final-state":      {1, Options{Steps: 20, ShootingLength: 10, FinalState: []float64{0.4, 0}}},
		"ragged":           {1, Options{Steps: 10, ShootingLength: 3}},
		"ragged-final":     {1, Options{Steps: 10, ShootingLength: 3, FinalState: []float64{0.4, 0}}},
		"two-dof":          {2, Options{Steps: 15, ShootingLength: 5}},
		"two-dof-loop":     {2, Options{Steps: 15, ShootingLength: 5, EnforceLoop: true, TuneStartingPoint: true}},
		"two-dof-final":    {2, Options{Steps: 15, ShootingLength: 5, FinalState: []float64{0.2, -0.2, 0, 0}}},
		"single-shot-loop": {2, Options{Steps: 10, ShootingLength: 10, EnforceLoop: true, TuneStartingPoint: true}},
	}
}

func TestSparsityPatternCongruence(t *testing.T) {
	for name, cfg := range jacobianConfigs() {
		p := newChainProblem(cfg.dofs, cfg.opts)
		x := seedState(p)

		rows, cols := p.SparsityPattern()
		if len(rows) != len(cols) {
			t.Fatalf("%s: rows/cols length mismatch", name)
		}
		vals, err := p.EvalConstraintJacobian(x)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(vals) != len(rows) {
			t.Errorf("%s: %d values for %d pattern entries", name, len(vals), len(rows))
		}
		for i := range rows {
			if rows[i] < 0 || rows[i] >= p.ConstraintDim() {
				t.Fatalf("%s: row %d out of bounds", name, rows[i])
			}
			if cols[i] < 0 || cols[i] >= p.FlatDim() {
				t.Fatalf("%s: col %d out of bounds", name, cols[i])
			}
		}

		// The pattern is structural: re-querying yields the same entries.
		rows2, cols2 := p.SparsityPattern()
		for i := range rows {
			if rows[i] != rows2[i] || cols[i] != cols2[i] {
				t.Fatalf("%s: pattern not stable at entry %d", name, i)
			}
		}
	}
}

func TestJacobianMatchesFiniteDifference(t *testing.T) {
	for name, cfg := range jacobianConfigs() {
		p := newChainProblem(cfg.dofs, cfg.opts)
		x := seedState(p)

		analytic, err := p.DenseConstraintJacobian(x)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		numeric, err := p.BruteForceConstraintJacobian(x)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		m, n := analytic.Dims()
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				diff := math.Abs(analytic.At(i, j) - numeric.At(i, j))
				if diff > 1e-5 {
					t.Errorf("%s: jacobian[%d,%d] analytic %g vs numeric %g",
						name, i, j, analytic.At(i, j), numeric.At(i, j))
				}
			}
		}
	}
}

func TestJacobianGapRowsAgainstKnownStructure(t *testing.T) {
	// With one gap constraint, the residual is pre-knot state minus the knot
	// anchor: the columns of knot 1's own phase must be exactly -I.
	p := newChainProblem(2, Options{Steps: 20, ShootingLength: 10})
	x := seedState(p)

	dense, err := p.DenseConstraintJacobian(x)
	if err != nil {
		t.Fatal(err)
	}
	l := p.Layout()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = -1
			}
			got := dense.At(l.KnotG[1]+i, l.KnotX[1]+j)
			if got != want {
				t.Errorf("knot block [%d,%d] = %g, want %g", i, j, got, want)
			}
		}
	}
}

func TestBruteForceGradientRestoresState(t *testing.T) {
	p := newChainProblem(1, Options{Steps: 10, ShootingLength: 5})
	x := seedState(p)

	if _, err := p.BruteForceObjectiveGradient(x); err != nil {
		t.Fatal(err)
	}
	got := p.Encode(EncodeState)
	for i := range x {
		if got[i] != x[i] {
			t.Fatalf("store perturbed after differencing at index %d", i)
		}
	}
}
