package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/internal/simulator"
)

// PolicyFactory builds a fresh decider for one weight configuration
type PolicyFactory func(w light.WeightConfiguration) simulator.Decider

// Options tune how a search is executed
type Options struct {
	Workers       int // concurrent evaluations, at least 1
	ProgressEvery int // log progress every N evaluations, 0 disables
}

// Evaluation is the outcome of replaying one configuration
type Evaluation struct {
	Index    int // position among the valid combinations
	Weights  light.WeightConfiguration
	Cost     float64
	Steps    int
	Duration time.Duration
}

// CostSummary describes the spread of costs over all evaluated configurations
type CostSummary struct {
	Mean   float64
	StdDev float64
	Median float64
	Worst  float64
}

// Result is the outcome of a complete search
type Result struct {
	RunID       uuid.UUID
	Best        light.WeightConfiguration
	BestCost    float64
	Costs       CostSummary
	Total       int // combinations in the grid
	Evaluated   int
	Skipped     int // combinations whose final weights do not sum to 1
	Evaluations []Evaluation
	StartedAt   time.Time
	CompletedAt time.Time
}

// Driver runs a grid search. Every evaluation gets its own simulator and
// policy, so no state is shared between combinations.
type Driver struct {
	grid         Grid
	newSimulator simulator.Factory
	newPolicy    PolicyFactory
	opts         Options
	logger       *slog.Logger
}

// NewDriver creates a search driver
func NewDriver(grid Grid, newSimulator simulator.Factory, newPolicy PolicyFactory, opts Options, logger *slog.Logger) *Driver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Driver{
		grid:         grid,
		newSimulator: newSimulator,
		newPolicy:    newPolicy,
		opts:         opts,
		logger:       logger.With("component", "search"),
	}
}

// Run evaluates every valid combination and returns the cheapest one.
// Ties keep the combination enumerated first.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if err := d.grid.Validate(); err != nil {
		return nil, err
	}

	valid, skipped := d.grid.ValidCombinations()
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no combination has final weights summing to 1", ErrEmptyGrid)
	}

	result := &Result{
		RunID:     uuid.New(),
		Total:     d.grid.Size(),
		Skipped:   skipped,
		StartedAt: time.Now(),
	}

	d.logger.Info("Starting parameter search",
		"run_id", result.RunID,
		"combinations", result.Total,
		"valid", len(valid),
		"skipped", skipped,
		"workers", d.opts.Workers)

	evaluations := make([]Evaluation, len(valid))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i, w := range valid {
		i, w := i, w
		g.Go(func() error {
			eval, err := d.evaluate(gctx, i, w)
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", w, err)
			}
			evaluations[i] = eval

			n := done.Add(1)
			if d.opts.ProgressEvery > 0 && n%int64(d.opts.ProgressEvery) == 0 {
				d.logger.Info("Search progress",
					"evaluated", n,
					"valid", len(valid),
					"percent", math.Round(float64(n)/float64(len(valid))*1000)/10)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	result.Evaluations = evaluations
	result.Evaluated = len(evaluations)
	result.Best, result.BestCost = best(evaluations)
	result.Costs = summarizeCosts(evaluations)
	result.CompletedAt = time.Now()

	d.logger.Info("Parameter search completed",
		"run_id", result.RunID,
		"evaluated", result.Evaluated,
		"best_cost", result.BestCost,
		"mean_cost", result.Costs.Mean,
		"median_cost", result.Costs.Median,
		"worst_cost", result.Costs.Worst,
		"best", result.Best.String(),
		"duration", result.CompletedAt.Sub(result.StartedAt))

	return result, nil
}

func (d *Driver) evaluate(ctx context.Context, index int, w light.WeightConfiguration) (Evaluation, error) {
	start := time.Now()

	sim, err := d.newSimulator()
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to create simulator: %w", err)
	}

	out, err := simulator.Run(ctx, sim, d.newPolicy(w))
	if err != nil {
		return Evaluation{}, err
	}

	d.logger.Debug("Configuration evaluated",
		"index", index,
		"weights", w.String(),
		"cost", out.Cost,
		"steps", out.Steps)

	return Evaluation{
		Index:    index,
		Weights:  w,
		Cost:     out.Cost,
		Steps:    out.Steps,
		Duration: time.Since(start),
	}, nil
}

func costs(evaluations []Evaluation) []float64 {
	c := make([]float64, len(evaluations))
	for i, e := range evaluations {
		c[i] = e.Cost
	}
	return c
}

// best returns the lowest cost; MinIdx reports the first index on ties,
// which is the first enumerated combination.
func best(evaluations []Evaluation) (light.WeightConfiguration, float64) {
	i := floats.MinIdx(costs(evaluations))
	return evaluations[i].Weights, evaluations[i].Cost
}

func summarizeCosts(evaluations []Evaluation) CostSummary {
	c := costs(evaluations)
	var summary CostSummary
	if len(evaluations) > 1 {
		summary.Mean, summary.StdDev = stat.MeanStdDev(c, nil)
	} else {
		summary.Mean = stat.Mean(c, nil)
	}
	summary.Worst = floats.Max(c)

	sort.Float64s(c)
	summary.Median = stat.Quantile(0.5, stat.Empirical, c, nil)
	return summary
}
