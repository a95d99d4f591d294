// Package optim adapts a trajectory problem to the SLSQP nonlinear
// programming solver: objective and per-row equality-constraint callbacks,
// box bounds from the system limits, and a finite-difference objective
// gradient scattered back through the problem's gradient accumulators.
package optim
