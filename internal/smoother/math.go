package smoother

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// normalizedOrthogonalComplement computes (a − b·(a·b)/‖b‖²) / (‖a‖·‖b‖):
// the component of a orthogonal to b, scaled by both norms. The norms are
// passed in because callers already have them cached.
func normalizedOrthogonalComplement(a, b r2.Vec, aNorm, bNorm float64) r2.Vec {
	s := r2.Dot(a, b) / r2.Norm2(b)
	return r2.Scale(1/(aNorm*bNorm), r2.Sub(a, r2.Scale(s, b)))
}

// costmapGradient estimates the costmap's local unit gradient direction at
// a cell with a five-point second-order central difference over the four
// axis-aligned neighbours at distance 1 and 2. Samples past the map edge
// read as zero. The estimate is normalised to unit length when its
// magnitude exceeds epsilon and zeroed otherwise (flat region).
func (e *Evaluator) costmapGradient(mx, my int, p *costComputations) {
	cm := e.costmap
	var leftOne, leftTwo, rightOne, rightTwo float64
	var upOne, upTwo, downOne, downTwo float64

	if mx+1 < cm.SizeX() {
		rightOne = cm.Cost(mx+1, my)
	}
	if mx+2 < cm.SizeX() {
		rightTwo = cm.Cost(mx+2, my)
	}
	if mx-1 >= 0 {
		leftOne = cm.Cost(mx-1, my)
	}
	if mx-2 >= 0 {
		leftTwo = cm.Cost(mx-2, my)
	}
	if my+1 < cm.SizeY() {
		upOne = cm.Cost(mx, my+1)
	}
	if my+2 < cm.SizeY() {
		upTwo = cm.Cost(mx, my+2)
	}
	if my-1 >= 0 {
		downOne = cm.Cost(mx, my-1)
	}
	if my-2 >= 0 {
		downTwo = cm.Cost(mx, my-2)
	}

	p.gradX = (8*rightOne - rightTwo - 8*leftOne + leftTwo) / 12
	p.gradY = (8*upOne - upTwo - 8*downOne + downTwo) / 12

	if mag := math.Hypot(p.gradX, p.gradY); mag > epsilon {
		p.gradX /= mag
		p.gradY /= mag
	} else {
		p.gradX = 0
		p.gradY = 0
	}
	p.haveGrad = true
}
