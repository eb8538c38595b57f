package smoother

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/path.report/internal/costmap"
)

// Objective is a differentiable scalar objective over a flat parameter
// vector, the shape expected by gradient-based minimisers.
type Objective interface {
	// NumParameters returns the length of the parameter vector.
	NumParameters() int
	// Evaluate returns the cost at params. When grad is non-nil it must
	// have the same length as params and is overwritten with the analytic
	// gradient; a nil grad requests the cost alone.
	Evaluate(params, grad []float64) float64
}

// Evaluator scores a candidate path of numPoints X,Y pairs against the
// smoothing objective. It is read-only after construction: independent
// evaluators may run concurrently as long as the costmap is not mutated.
//
// The first and last points are fixed boundary conditions. They are present
// in the parameter vector but excluded from cost accumulation, and their
// gradient entries are always zero.
type Evaluator struct {
	numPoints int
	weights   Weights
	costmap   Costmap
}

// NewEvaluator creates an evaluator for paths of numPoints points.
// At least three points are required so that every interior point has two
// neighbours.
func NewEvaluator(numPoints int, weights Weights, cm Costmap) (*Evaluator, error) {
	if numPoints < 3 {
		return nil, fmt.Errorf("need at least 3 path points, got %d", numPoints)
	}
	if cm == nil {
		return nil, fmt.Errorf("costmap is required")
	}
	return &Evaluator{numPoints: numPoints, weights: weights, costmap: cm}, nil
}

// NumParameters returns the flat parameter vector length (2 * numPoints).
func (e *Evaluator) NumParameters() int { return 2 * e.numPoints }

// Evaluate computes the total cost of the path in params and, when grad is
// non-nil, its analytic gradient. params must hold exactly NumParameters()
// values with point i at [2i, 2i+1].
//
// Evaluate never fails: degenerate geometry (near-zero segments, NaN/Inf
// intermediates) and points outside the costmap silently contribute zero
// for the affected terms only, so the optimizer always receives a finite
// cost/gradient pair.
func (e *Evaluator) Evaluate(params, grad []float64) float64 {
	if grad != nil {
		for i := range grad {
			grad[i] = 0
		}
	}

	var cost float64
	kiPrev := 0.0

	for i := 1; i < e.numPoints-1; i++ {
		xi := 2 * i
		yi := xi + 1

		pt := r2.Vec{X: params[xi], Y: params[yi]}
		ptP := r2.Vec{X: params[xi+2], Y: params[yi+2]}
		ptM := r2.Vec{X: params[xi-2], Y: params[yi-2]}

		// Fresh per-point caches shared between residual and jacobian.
		var curve curvatureComputations
		var field costComputations

		e.addSmoothingResidual(pt, ptP, ptM, &cost)
		e.addCurvatureResidual(pt, ptP, ptM, &curve, &cost)
		e.addCurvatureChangeResidual(curve.turningRate, kiPrev, &cost)

		mx, my, inMap := e.costmap.WorldToMap(pt.X, pt.Y)
		var value float64
		if inMap {
			value = e.costmap.Cost(mx, my)
			e.addCollisionResidual(value, &field, &cost)
			e.addCostResidual(value, &field, &cost)
		}

		if grad != nil {
			var j0, j1 float64
			e.addSmoothingJacobian(pt, ptP, ptM, &j0, &j1)
			e.addCurvatureJacobian(&curve, &j0, &j1)
			e.addCurvatureChangeJacobian(curve.turningRate, kiPrev, &j0, &j1)
			if inMap {
				e.addCollisionJacobian(mx, my, value, &field, &j0, &j1)
				e.addCostJacobian(mx, my, value, &field, &j0, &j1)
			}
			grad[xi] = j0
			grad[yi] = j1
		}

		// The change term at point i+1 compares against this point's
		// estimate, so the sweep is sequential by construction.
		kiPrev = curve.turningRate
	}

	return cost
}

// addSmoothingResidual accumulates the discrete second-difference penalty
// ‖pᵢ₊₁ − 2pᵢ + pᵢ₋₁‖² expanded via dot products. Quadratic and stable
// everywhere.
func (e *Evaluator) addSmoothingResidual(pt, ptP, ptM r2.Vec, r *float64) {
	*r += e.weights.Smooth * (r2.Dot(ptP, ptP) -
		4*r2.Dot(ptP, pt) +
		2*r2.Dot(ptP, ptM) +
		4*r2.Dot(pt, pt) -
		4*r2.Dot(pt, ptM) +
		r2.Dot(ptM, ptM))
}

// addSmoothingJacobian accumulates the smoothing term's partial derivative
// with respect to pᵢ.
func (e *Evaluator) addSmoothingJacobian(pt, ptP, ptM r2.Vec, j0, j1 *float64) {
	*j0 += e.weights.Smooth * (-4*ptM.X + 8*pt.X - 4*ptP.X)
	*j1 += e.weights.Smooth * (-4*ptM.Y + 8*pt.Y - 4*ptP.Y)
}

// addCurvatureResidual accumulates the one-sided penalty on the discrete
// turning rate, populating c for the jacobian and the change term. The
// turning rate kᵢ is the angle between the two adjacent segments divided by
// the incoming segment length.
func (e *Evaluator) addCurvatureResidual(pt, ptP, ptM r2.Vec, c *curvatureComputations, r *float64) {
	c.deltaXi = r2.Sub(pt, ptM)
	c.deltaXiP = r2.Sub(ptP, pt)
	c.deltaXiNorm = r2.Norm(c.deltaXi)
	c.deltaXiPNorm = r2.Norm(c.deltaXiP)

	if c.deltaXiNorm < epsilon || c.deltaXiPNorm < epsilon ||
		math.IsNaN(c.deltaXiNorm) || math.IsNaN(c.deltaXiPNorm) ||
		math.IsInf(c.deltaXiNorm, 0) || math.IsInf(c.deltaXiPNorm, 0) {
		// Degenerate segment: the whole term is disabled for this point.
		return
	}

	projection := r2.Dot(c.deltaXi, c.deltaXiP) / (c.deltaXiNorm * c.deltaXiPNorm)
	// Clamp floating-point overshoot so acos stays in its domain.
	if math.Abs(1-projection) < epsilon || math.Abs(projection+1) < epsilon {
		projection = 1.0
	}

	c.deltaPhi = math.Acos(projection)
	c.turningRate = c.deltaPhi / c.deltaXiNorm
	c.excess = c.turningRate - e.weights.MaxTurningRate

	if c.excess <= epsilon {
		// Below the limit the quadratic penalty does not apply.
		return
	}

	c.valid = true
	*r += e.weights.Curve * c.excess * c.excess
}

// addCurvatureJacobian accumulates the curvature term's partial derivative,
// obtained by the chain rule through acos and the segment norms and
// decomposed with normalizedOrthogonalComplement.
func (e *Evaluator) addCurvatureJacobian(c *curvatureComputations, j0, j1 *float64) {
	if !c.valid {
		return
	}

	partialDeltaPhi := -1 / math.Sqrt(1-math.Pow(math.Cos(c.deltaPhi), 2))
	p1 := normalizedOrthogonalComplement(c.deltaXi, c.deltaXiP, c.deltaXiNorm, c.deltaXiPNorm)
	p2 := normalizedOrthogonalComplement(c.deltaXiP, c.deltaXi, c.deltaXiNorm, c.deltaXiPNorm)

	u := 2 * c.excess
	prefix := (-1 / c.deltaXiNorm) * partialDeltaPhi
	suffix := c.deltaPhi / (c.deltaXiNorm * c.deltaXiNorm)

	jac := r2.Scale(u, r2.Sub(
		r2.Scale(prefix, r2.Scale(-1, r2.Add(p1, p2))),
		r2.Vec{X: suffix, Y: suffix},
	))
	*j0 += e.weights.Curve * jac.X
	*j1 += e.weights.Curve * jac.Y
}

// addCurvatureChangeResidual accumulates the damping penalty on the change
// in turning rate between this point and the previous interior point.
func (e *Evaluator) addCurvatureChangeResidual(ki, kiPrev float64, r *float64) {
	d := ki - kiPrev
	*r += e.weights.Change * d * d
}

// addCurvatureChangeJacobian accumulates the change term's gradient. The
// scalar 2w(kᵢ−kᵢ₋₁) is applied identically to both axes instead of being
// resolved through the chain rule back to the point coordinates; this is a
// known approximation inherited from the original formulation.
func (e *Evaluator) addCurvatureChangeJacobian(ki, kiPrev float64, j0, j1 *float64) {
	d := 2 * e.weights.Change * (ki - kiPrev)
	*j0 += d
	*j1 += d
}

// addCollisionResidual accumulates the collision penalty for cells at or
// above the inscribed threshold, caching the value for the avoidance term.
// Cost tracks obstacle distance closely enough inside the inflation zone to
// stand in for it.
func (e *Evaluator) addCollisionResidual(value float64, p *costComputations, r *float64) {
	if value == costmap.Unknown || value < costmap.InscribedInflated {
		return
	}

	d := value - costmap.MaxNonObstacle
	p.cost = -e.weights.Collision * d * d
	p.haveCost = true
	*r += p.cost
}

// addCollisionJacobian accumulates the collision term's gradient along the
// costmap's local unit gradient direction.
func (e *Evaluator) addCollisionJacobian(mx, my int, value float64, p *costComputations, j0, j1 *float64) {
	if value == costmap.Unknown || value < costmap.InscribedInflated {
		return
	}

	e.costmapGradient(mx, my, p)

	prefix := -2 * e.weights.Collision * (value - costmap.MaxNonObstacle)
	*j0 += prefix * p.gradX
	*j1 += prefix * p.gradY
}

// addCostResidual accumulates the general avoidance penalty for any cell
// that is neither free nor unknown. When the collision term already
// computed the penalty for this point it is reused as-is rather than
// evaluated a second time.
func (e *Evaluator) addCostResidual(value float64, p *costComputations, r *float64) {
	if value == costmap.FreeSpace || value == costmap.Unknown {
		return
	}

	if p.haveCost {
		*r += p.cost
		return
	}
	d := value - costmap.MaxNonObstacle
	*r += -e.weights.Cost * d * d
}

// addCostJacobian accumulates the avoidance term's gradient, reusing the
// unit direction cached by the collision jacobian when present.
func (e *Evaluator) addCostJacobian(mx, my int, value float64, p *costComputations, j0, j1 *float64) {
	if value == costmap.FreeSpace || value == costmap.Unknown {
		return
	}

	if !p.haveGrad {
		e.costmapGradient(mx, my, p)
	}

	prefix := -2 * e.weights.Cost * (value - costmap.MaxNonObstacle)
	*j0 += prefix * p.gradX
	*j1 += prefix * p.gradY
}

var _ Objective = (*Evaluator)(nil)
