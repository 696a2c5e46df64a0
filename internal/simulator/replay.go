package simulator

import (
	"context"
	"fmt"
	"io"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// CostModel prices one timestep of light actions in cents
type CostModel struct {
	LightOnCost            float64 // per lit light
	MissedOccupancyPenalty float64 // per occupied room left dark
}

// DefaultCostModel returns the default energy and comfort prices
func DefaultCostModel() CostModel {
	return CostModel{
		LightOnCost:            1,
		MissedOccupancyPenalty: 4,
	}
}

// Cost prices the actions against the ground-truth occupancy of the record
func (c CostModel) Cost(rec *dataset.Record, actions light.Actions) (float64, error) {
	total := 0.0
	for _, room := range building.Rooms() {
		id := building.LightFor(room)
		action, ok := actions[id]
		if !ok {
			return 0, fmt.Errorf("%w: no action for %s", ErrIncompleteActions, id)
		}

		switch {
		case action == light.ActionOn:
			total += c.LightOnCost
		case rec.Occupied(room):
			total += c.MissedOccupancyPenalty
		}
	}
	return total, nil
}

// Replay replays recorded timesteps in order and prices actions against the
// recorded occupancy. Records are shared and must not be modified.
type Replay struct {
	records []*dataset.Record
	cost    CostModel
	next    int
	current *dataset.Record
}

// NewReplay creates a replay positioned before the first record
func NewReplay(records []*dataset.Record, cost CostModel) *Replay {
	return &Replay{
		records: records,
		cost:    cost,
	}
}

// Len returns the number of timesteps in the replay
func (r *Replay) Len() int {
	return len(r.records)
}

// Timestep advances to the next record
func (r *Replay) Timestep(ctx context.Context) (*dataset.Record, error) {
	if r.next >= len(r.records) {
		r.current = nil
		return nil, io.EOF
	}
	r.current = r.records[r.next]
	r.next++
	return r.current, nil
}

// CostTimestep prices the actions taken for the current record
func (r *Replay) CostTimestep(actions light.Actions) (float64, error) {
	if r.current == nil {
		return 0, ErrNoTimestep
	}
	return r.cost.Cost(r.current, actions)
}

// ReplayFactory returns a factory creating independent replays over the same records
func ReplayFactory(records []*dataset.Record, cost CostModel) Factory {
	return func() (Simulator, error) {
		return NewReplay(records, cost), nil
	}
}
