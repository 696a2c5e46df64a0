package occupancy

import (
	"fmt"

	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// Model is a per-room two-state dynamic Bayesian network. It owns the
// belief state of one simulation run and must not be shared between runs.
type Model struct {
	params         *estimator.Params
	dbnPriorWeight float64
	belief         map[building.Room]float64
}

// NewModel creates a model with zero belief in every room. dbnPriorWeight
// in [0,1] blends the time-of-day prior into every prediction.
func NewModel(params *estimator.Params, dbnPriorWeight float64) *Model {
	belief := make(map[building.Room]float64, building.RoomCount)
	for _, room := range building.Rooms() {
		belief[room] = 0
	}
	return &Model{
		params:         params,
		dbnPriorWeight: dbnPriorWeight,
		belief:         belief,
	}
}

// Predict projects the room's belief one step forward and smooths it with the prior
func (m *Model) Predict(room building.Room, slot building.TimeSlot) (float64, error) {
	prev, err := m.Belief(room)
	if err != nil {
		return 0, err
	}
	probs, err := m.params.Transition(room)
	if err != nil {
		return 0, err
	}
	prior, err := m.params.Prior(room, slot)
	if err != nil {
		return 0, err
	}

	predicted := prev*probs.StayOccupied + (1-prev)*probs.BecomeOccupied
	return (1-m.dbnPriorWeight)*predicted + m.dbnPriorWeight*prior, nil
}

// Update replaces the room's belief with a posterior probability
func (m *Model) Update(room building.Room, posterior float64) error {
	if _, ok := m.belief[room]; !ok {
		return fmt.Errorf("update: %w: %q", building.ErrUnknownRoom, room)
	}
	m.belief[room] = posterior
	return nil
}

// Belief returns the current occupancy belief of a room
func (m *Model) Belief(room building.Room) (float64, error) {
	b, ok := m.belief[room]
	if !ok {
		return 0, fmt.Errorf("belief: %w: %q", building.ErrUnknownRoom, room)
	}
	return b, nil
}
