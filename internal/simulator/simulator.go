// Package simulator defines the environment the decision policy is evaluated
// against and provides a replay of historical logs.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/light"
)

var (
	// ErrNoTimestep is returned when a cost is requested before the first timestep
	ErrNoTimestep = errors.New("no current timestep")

	// ErrIncompleteActions is returned when actions do not cover every light
	ErrIncompleteActions = errors.New("incomplete actions")
)

// Simulator advances the building one step at a time and prices the actions
// taken for the current step. Timestep returns io.EOF when exhausted.
type Simulator interface {
	Timestep(ctx context.Context) (*dataset.Record, error)
	CostTimestep(actions light.Actions) (float64, error)
}

// Factory builds a simulator positioned at the start of its run
type Factory func() (Simulator, error)

// Decider picks actions for a timestep
type Decider interface {
	Decide(rec *dataset.Record) (light.Actions, error)
}

// Outcome summarizes one complete run
type Outcome struct {
	Cost  float64
	Steps int
}

// Run drives the decider through the simulator until it is exhausted and
// accumulates the cost of every step.
func Run(ctx context.Context, sim Simulator, decider Decider) (Outcome, error) {
	var out Outcome
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		rec, err := sim.Timestep(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("timestep %d: %w", out.Steps, err)
		}

		actions, err := decider.Decide(rec)
		if err != nil {
			return out, fmt.Errorf("timestep %d: %w", out.Steps, err)
		}

		cost, err := sim.CostTimestep(actions)
		if err != nil {
			return out, fmt.Errorf("timestep %d cost: %w", out.Steps, err)
		}

		out.Cost += cost
		out.Steps++
	}
}
