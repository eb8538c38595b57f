package smoother

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/path.report/internal/costmap"
)

func TestSmoother_ReducesCostOnZigzag(t *testing.T) {
	g, err := costmap.NewGrid(40, 40, 1.0, 0, 0)
	require.NoError(t, err)

	// A zigzag between two endpoints; the smoothness term should pull the
	// interior points toward the straight line.
	path := flatten([][2]float64{
		{5, 20}, {10, 24}, {15, 16}, {20, 24}, {25, 16}, {30, 20},
	})

	s := NewSmoother(DefaultWeights(), g, DefaultOptions())
	res, err := s.Smooth(path)
	require.NoError(t, err)

	assert.Less(t, res.FinalCost, res.InitialCost, "smoothing should reduce cost")
	assert.Greater(t, res.Iterations, 0)
	assert.NotEmpty(t, res.Trace)

	// Endpoints are fixed boundary conditions.
	assert.Equal(t, path[0], res.Path[0])
	assert.Equal(t, path[1], res.Path[1])
	assert.Equal(t, path[len(path)-2], res.Path[len(res.Path)-2])
	assert.Equal(t, path[len(path)-1], res.Path[len(res.Path)-1])

	// Input buffer must not be modified.
	assert.Equal(t, 10.0, path[2])
	assert.Equal(t, 24.0, path[3])
}

func TestSmoother_TraceHoldsOnlyFiniteCosts(t *testing.T) {
	g, err := costmap.NewGrid(40, 40, 1.0, 0, 0)
	require.NoError(t, err)

	path := flatten([][2]float64{
		{5, 20}, {10, 24}, {15, 16}, {20, 24}, {25, 16}, {30, 20},
	})
	s := NewSmoother(DefaultWeights(), g, DefaultOptions())
	res, err := s.Smooth(path)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trace)

	for i, c := range res.Trace {
		assert.Falsef(t, math.IsInf(c, 0) || math.IsNaN(c),
			"trace[%d] = %v, want finite", i, c)
	}

	// The trace ends up in sqlite and API responses as JSON; a non-finite
	// entry would make encoding fail outright.
	_, err = json.Marshal(res.Trace)
	assert.NoError(t, err)
}

func TestSmoother_StraightPathAlreadyOptimal(t *testing.T) {
	g, err := costmap.NewGrid(40, 40, 1.0, 0, 0)
	require.NoError(t, err)

	path := flatten([][2]float64{{5, 20}, {10, 20}, {15, 20}, {20, 20}})
	s := NewSmoother(DefaultWeights(), g, DefaultOptions())

	res, err := s.Smooth(path)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.InitialCost, 1e-9)
	assert.InDelta(t, 0, res.FinalCost, 1e-9)
}

func TestSmoother_RejectsOddLengthPath(t *testing.T) {
	g, err := costmap.NewGrid(10, 10, 1.0, 0, 0)
	require.NoError(t, err)

	s := NewSmoother(DefaultWeights(), g, DefaultOptions())
	_, err = s.Smooth([]float64{1, 2, 3})
	assert.Error(t, err)

	_, err = s.Smooth([]float64{1, 2, 3, 4}) // only two points
	assert.Error(t, err)
}

func TestSmoother_IterationBudgetRespected(t *testing.T) {
	g, err := costmap.NewGrid(40, 40, 1.0, 0, 0)
	require.NoError(t, err)

	path := flatten([][2]float64{
		{5, 20}, {10, 28}, {15, 12}, {20, 28}, {25, 12}, {30, 20},
	})
	s := NewSmoother(DefaultWeights(), g, Options{MaxIterations: 3, GradientTolerance: 1e-12})

	res, err := s.Smooth(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Iterations, 3)
}
