// Package smoother reshapes coarse, collision-prone 2D paths into smooth,
// kinematically feasible ones by minimising a multi-term differentiable
// objective over the path's interior points.
//
// The core is Evaluator, which computes the scalar cost of a flat X,Y
// parameter vector together with its analytic gradient: a smoothness term
// on discrete second differences, a one-sided penalty on the discrete
// turning rate above a configured limit, a damping term on turning-rate
// change between consecutive points, and two costmap-driven terms that
// penalise collision and steer away from non-free cells. Smoother plugs
// the evaluator into gonum's first-order minimisers and drives it to
// convergence while the path endpoints stay fixed.
package smoother
