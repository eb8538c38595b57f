package smoother

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// Options bounds one smoothing run.
type Options struct {
	// MaxIterations caps the number of major optimizer iterations.
	MaxIterations int
	// GradientTolerance stops the run once the gradient's infinity norm
	// falls below it.
	GradientTolerance float64
	// Runtime caps wall-clock time for the run. Zero means no limit.
	Runtime time.Duration
}

// DefaultOptions returns the bounds used by the service and CLI.
func DefaultOptions() Options {
	return Options{
		MaxIterations:     500,
		GradientTolerance: 1e-6,
	}
}

// Result describes a finished smoothing run.
type Result struct {
	// Path is the smoothed flat X,Y vector, same shape as the input.
	Path []float64
	// InitialCost and FinalCost are the objective values before and after.
	InitialCost float64
	FinalCost   float64
	// Iterations and Evaluations count major iterations and objective
	// evaluations (function plus gradient calls).
	Iterations  int
	Evaluations int
	// Converged reports whether the run stopped on a convergence criterion
	// rather than an iteration or time budget; Reason is the solver status.
	Converged bool
	Reason    string
	// Trace holds the cost at each major iteration, for convergence charts.
	Trace []float64
}

// Smoother drives an Evaluator through a first-order minimiser. The path
// endpoints never move because the objective reports zero gradient for them.
type Smoother struct {
	weights Weights
	costmap Costmap
	opts    Options
}

// NewSmoother creates a smoother over the given costmap.
func NewSmoother(weights Weights, cm Costmap, opts Options) *Smoother {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if opts.GradientTolerance <= 0 {
		opts.GradientTolerance = DefaultOptions().GradientTolerance
	}
	return &Smoother{weights: weights, costmap: cm, opts: opts}
}

// Smooth minimises the objective starting from path, a flat vector of at
// least three X,Y pairs. The input is not modified.
func (s *Smoother) Smooth(path []float64) (*Result, error) {
	if len(path)%2 != 0 {
		return nil, fmt.Errorf("path length %d is not a whole number of X,Y pairs", len(path))
	}
	n := len(path) / 2

	ev, err := NewEvaluator(n, s.weights, s.costmap)
	if err != nil {
		return nil, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return ev.Evaluate(x, nil)
		},
		Grad: func(grad, x []float64) {
			ev.Evaluate(x, grad)
		},
	}

	trace := &costTrace{}
	settings := &optimize.Settings{
		MajorIterations:   s.opts.MaxIterations,
		GradientThreshold: s.opts.GradientTolerance,
		Runtime:           s.opts.Runtime,
		Recorder:          trace,
	}

	init := make([]float64, len(path))
	copy(init, path)
	initialCost := ev.Evaluate(init, nil)

	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("smoothing failed: %w", err)
	}

	converged := result.Status == optimize.GradientThreshold ||
		result.Status == optimize.FunctionConvergence

	return &Result{
		Path:        result.X,
		InitialCost: initialCost,
		FinalCost:   result.F,
		Iterations:  result.Stats.MajorIterations,
		Evaluations: result.Stats.FuncEvaluations + result.Stats.GradEvaluations,
		Converged:   converged,
		Reason:      result.Status.String(),
		Trace:       trace.costs,
	}, nil
}

// costTrace records the objective value at each major iteration.
type costTrace struct {
	costs []float64
}

func (t *costTrace) Init() error { return nil }

func (t *costTrace) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	// Before the first evaluation the solver's location holds +Inf; a
	// non-finite sample would poison the stored trace.
	if math.IsInf(loc.F, 0) || math.IsNaN(loc.F) {
		return nil
	}
	t.costs = append(t.costs, loc.F)
	return nil
}

var _ optimize.Recorder = (*costTrace)(nil)
