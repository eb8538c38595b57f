package smoother

import "gonum.org/v1/gonum/spatial/r2"

// epsilon bounds degenerate geometry: segment norms below it invalidate the
// curvature terms, and projections within it of ±1 are clamped before acos.
const epsilon = 1e-4

// Weights holds the five term weights and the turning-rate limit.
// All weights are non-negative. A zero weight disables the smoothness,
// curvature and change terms; the two costmap terms activate on cell value
// thresholds instead, and whenever the collision term fires, its cached
// penalty is what the avoidance term adds, regardless of Cost.
type Weights struct {
	// Smooth scales the discrete second-difference penalty.
	Smooth float64
	// Curve scales the one-sided penalty on turning rate above MaxTurningRate.
	Curve float64
	// Collision scales the penalty for cells at or above InscribedInflated.
	Collision float64
	// Cost scales the general avoidance penalty for any non-free cell.
	Cost float64
	// Change scales the damping on turning-rate change between neighbours.
	Change float64
	// MaxTurningRate is the turning-rate limit in radians per metre of path.
	MaxTurningRate float64
}

// DefaultWeights returns the tuning used in production runs.
func DefaultWeights() Weights {
	return Weights{
		Smooth:         200000,
		Curve:          2.0,
		Collision:      1.0,
		Cost:           0.2,
		Change:         1.0,
		MaxTurningRate: 10.0,
	}
}

// Costmap is the narrow view of the cost field the evaluator needs:
// a world-to-grid transform that can fail, per-cell cost lookup, and the
// grid extents for the gradient stencil's bounds checks.
type Costmap interface {
	WorldToMap(wx, wy float64) (mx, my int, ok bool)
	Cost(mx, my int) float64
	SizeX() int
	SizeY() int
}

// curvatureComputations caches the intermediate values shared between the
// curvature residual and its jacobian for one point. A fresh value is built
// per point per evaluation; valid is only set once the one-sided penalty is
// actually active, so the zero value contributes nothing.
type curvatureComputations struct {
	valid        bool
	deltaXi      r2.Vec
	deltaXiP     r2.Vec
	deltaXiNorm  float64
	deltaXiPNorm float64
	deltaPhi     float64
	turningRate  float64
	excess       float64
}

// costComputations caches the collision term's penalty and the costmap's
// local unit gradient so the avoidance term can reuse them. Presence is
// tracked explicitly rather than by comparing against zero, since a true
// zero penalty or flat gradient is a legitimate computed result.
type costComputations struct {
	haveCost bool
	cost     float64
	haveGrad bool
	gradX    float64
	gradY    float64
}
