// Package costmap provides a 2D occupancy cost grid used to score
// candidate paths against obstacle proximity. Cell values follow the
// conventional inflation scale: 0 is free space, 252 is the highest
// non-obstacle cost, 253 means the cell intersects an inflated obstacle
// footprint, 254 is a lethal obstacle and 255 is unknown.
package costmap

import (
	"fmt"
	"math"
)

// Cost value thresholds. These are defined by the grid, not derived by
// consumers: code that scores paths compares sampled values against these
// constants directly.
const (
	FreeSpace         = 0
	MaxNonObstacle    = 252
	InscribedInflated = 253
	LethalObstacle    = 254
	Unknown           = 255
)

// Grid is a row-major 2D cost grid anchored in world coordinates.
// The cell at (mx, my) covers the world square starting at
// (originX + mx*resolution, originY + my*resolution).
type Grid struct {
	sizeX      int
	sizeY      int
	resolution float64
	originX    float64
	originY    float64
	cells      []uint8
}

// NewGrid creates an all-free grid of sizeX by sizeY cells.
// Resolution is the cell edge length in metres.
func NewGrid(sizeX, sizeY int, resolution, originX, originY float64) (*Grid, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", sizeX, sizeY)
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("invalid resolution %v", resolution)
	}
	return &Grid{
		sizeX:      sizeX,
		sizeY:      sizeY,
		resolution: resolution,
		originX:    originX,
		originY:    originY,
		cells:      make([]uint8, sizeX*sizeY),
	}, nil
}

// SizeX returns the grid width in cells.
func (g *Grid) SizeX() int { return g.sizeX }

// SizeY returns the grid height in cells.
func (g *Grid) SizeY() int { return g.sizeY }

// Resolution returns the cell edge length in metres.
func (g *Grid) Resolution() float64 { return g.resolution }

// Origin returns the world coordinates of the grid's lower-left corner.
func (g *Grid) Origin() (x, y float64) { return g.originX, g.originY }

// Cost returns the cost value at a cell. Out-of-range reads return
// FreeSpace so neighbourhood stencils can treat the map edge as zero.
func (g *Grid) Cost(mx, my int) float64 {
	if mx < 0 || my < 0 || mx >= g.sizeX || my >= g.sizeY {
		return FreeSpace
	}
	return float64(g.cells[my*g.sizeX+mx])
}

// SetCost writes a cost value at a cell. Out-of-range writes are ignored.
func (g *Grid) SetCost(mx, my int, value uint8) {
	if mx < 0 || my < 0 || mx >= g.sizeX || my >= g.sizeY {
		return
	}
	g.cells[my*g.sizeX+mx] = value
}

// WorldToMap converts world coordinates to cell indices. The second return
// is false when the point falls outside the grid.
func (g *Grid) WorldToMap(wx, wy float64) (mx, my int, ok bool) {
	if wx < g.originX || wy < g.originY {
		return 0, 0, false
	}
	mx = int((wx - g.originX) / g.resolution)
	my = int((wy - g.originY) / g.resolution)
	if mx >= g.sizeX || my >= g.sizeY {
		return 0, 0, false
	}
	return mx, my, true
}

// MapToWorld returns the world coordinates of a cell's centre.
func (g *Grid) MapToWorld(mx, my int) (wx, wy float64) {
	wx = g.originX + (float64(mx)+0.5)*g.resolution
	wy = g.originY + (float64(my)+0.5)*g.resolution
	return wx, wy
}

// AddObstacle marks a cell lethal and inflates cost around it with a
// quadratic falloff out to radius cells. Existing higher costs are kept,
// so overlapping obstacles compose. Unknown cells are never overwritten.
func (g *Grid) AddObstacle(mx, my, radius int) {
	g.setIfHigher(mx, my, LethalObstacle)
	if radius < 1 {
		return
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d := math.Hypot(float64(dx), float64(dy))
			if d > float64(radius) {
				continue
			}
			var v uint8
			if d <= 1 {
				v = InscribedInflated
			} else {
				f := 1 - (d-1)/float64(radius)
				v = uint8(math.Round(MaxNonObstacle * f * f))
			}
			g.setIfHigher(mx+dx, my+dy, v)
		}
	}
}

func (g *Grid) setIfHigher(mx, my int, value uint8) {
	if mx < 0 || my < 0 || mx >= g.sizeX || my >= g.sizeY {
		return
	}
	idx := my*g.sizeX + mx
	if g.cells[idx] == Unknown {
		return
	}
	if value > g.cells[idx] {
		g.cells[idx] = value
	}
}
