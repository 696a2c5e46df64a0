package light

import (
	"fmt"
	"log/slog"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/internal/occupancy"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// Action is the command sent to one light
type Action string

const (
	ActionOn  Action = "on"
	ActionOff Action = "off"
)

// Actions maps light identifiers to the action for one timestep
type Actions map[string]Action

// On counts the lights switched on
func (a Actions) On() int {
	n := 0
	for _, action := range a {
		if action == ActionOn {
			n++
		}
	}
	return n
}

// ActionsOf collects the actions of a set of decisions
func ActionsOf(decisions []Decision) Actions {
	actions := make(Actions, len(decisions))
	for _, d := range decisions {
		actions[d.Light] = d.Action
	}
	return actions
}

// Decision records how one room's action was reached
type Decision struct {
	Room        building.Room
	Light       string
	Slot        building.TimeSlot
	Prior       float64
	Predicted   float64
	Posterior   float64 // equals Predicted when HasEvidence is false
	Final       float64
	HasEvidence bool
	Action      Action
}

// ActionFor compares a final probability to the threshold. Equality turns the light on.
func ActionFor(final, threshold float64) Action {
	if final >= threshold {
		return ActionOn
	}
	return ActionOff
}

// Policy decides light actions timestep by timestep. It owns a fresh
// occupancy model, so each simulation run needs its own Policy.
type Policy struct {
	params     *estimator.Params
	layout     *building.Layout
	window     building.Window
	weights    WeightConfiguration
	model      *occupancy.Model
	calculator *occupancy.PosteriorCalculator
	logger     *slog.Logger
}

// NewPolicy creates a policy with zero belief in every room. The weights are
// used as given; callers filter invalid configurations beforehand.
func NewPolicy(params *estimator.Params, layout *building.Layout, window building.Window, weights WeightConfiguration, logger *slog.Logger) *Policy {
	return &Policy{
		params:     params,
		layout:     layout,
		window:     window,
		weights:    weights,
		model:      occupancy.NewModel(params, weights.DBNPriorWeight),
		calculator: occupancy.NewPosteriorCalculator(layout, params.Reliability),
		logger:     logger,
	}
}

// Weights returns the configuration the policy runs with
func (p *Policy) Weights() WeightConfiguration {
	return p.weights
}

// Model exposes the policy's occupancy model
func (p *Policy) Model() *occupancy.Model {
	return p.model
}

// Decide returns the action of every light for one timestep
func (p *Policy) Decide(rec *dataset.Record) (Actions, error) {
	decisions, err := p.Evaluate(rec)
	if err != nil {
		return nil, err
	}

	actions := ActionsOf(decisions)
	p.logger.Debug("Timestep decided",
		"time_of_day", rec.TimeOfDay,
		"lights_on", actions.On(),
		"lights_total", len(actions))

	return actions, nil
}

// Evaluate runs the model for every room in order and returns the per-room
// decisions. It advances the belief of every room that has evidence.
func (p *Policy) Evaluate(rec *dataset.Record) ([]Decision, error) {
	slot := p.window.SlotFor(rec.TimeOfDay)
	rooms := building.Rooms()
	decisions := make([]Decision, 0, len(rooms))

	for _, room := range rooms {
		d, err := p.decideRoom(rec, room, slot)
		if err != nil {
			return nil, fmt.Errorf("room %s at %s: %w", room, slot, err)
		}
		decisions = append(decisions, d)
	}

	return decisions, nil
}

func (p *Policy) decideRoom(rec *dataset.Record, room building.Room, slot building.TimeSlot) (Decision, error) {
	prior, err := p.params.Prior(room, slot)
	if err != nil {
		return Decision{}, err
	}
	predicted, err := p.model.Predict(room, slot)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Room:      room,
		Light:     building.LightFor(room),
		Slot:      slot,
		Prior:     prior,
		Predicted: predicted,
		Posterior: predicted,
	}

	w := p.weights
	if p.layout.HasAssignedSensor(room) || rec.RobotNames(room) {
		posterior, err := p.calculator.Calculate(predicted, rec, room)
		if err != nil {
			return Decision{}, err
		}
		if err := p.model.Update(room, posterior); err != nil {
			return Decision{}, err
		}
		d.HasEvidence = true
		d.Posterior = posterior
		d.Final = w.FinalPriorWeight*prior + w.FinalPredictedWeight*predicted + w.FinalPosteriorWeight*posterior
	} else {
		d.Final = blendWithoutEvidence(w, prior, predicted)
	}

	d.Action = ActionFor(d.Final, w.Threshold)
	return d, nil
}

// blendWithoutEvidence renormalizes the prior and predicted weights over
// their own sum. With both weights zero the prediction is used as is.
func blendWithoutEvidence(w WeightConfiguration, prior, predicted float64) float64 {
	sum := w.FinalPriorWeight + w.FinalPredictedWeight
	if sum == 0 {
		return predicted
	}
	return (w.FinalPriorWeight/sum)*prior + (w.FinalPredictedWeight/sum)*predicted
}
