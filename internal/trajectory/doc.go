// Package trajectory formulates a multiple-shooting trajectory optimization
// problem over a controlled dynamical system.
//
// The horizon is split into shooting segments, each anchored by a knot phase
// (position, velocity). Per-step torques and the free knot phases form a flat
// decision vector; shooting-gap equality constraints force each knot to match
// the state reached by simulating the previous segment, optionally joined by
// a loop-closure or fixed-terminal-state constraint.
//
//   - [Problem] owns the decision variables and their flat encoding
//   - [Problem.Unroll] simulates the horizon and records per-step
//     sensitivity snapshots
//   - [Problem.EvalConstraints] computes the residual vector
//   - [Problem.EvalConstraintJacobian] chains the snapshots backward through
//     each segment into a sparse Jacobian aligned with
//     [Problem.SparsityPattern]
package trajectory
