// Package estimator learns occupancy priors, sensor reliabilities and room
// transition probabilities from historical logs, and persists them.
package estimator

import (
	"fmt"

	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// Priors holds, per room, the fraction of historical samples in each time slot
// where the room was occupied.
type Priors map[building.Room]map[building.TimeSlot]float64

// TransitionProbs are one room's Markov transition probabilities
type TransitionProbs struct {
	StayOccupied   float64 `json:"stay_occupied"`
	BecomeOccupied float64 `json:"become_occupied"`
}

// TransitionModel holds transition probabilities per room
type TransitionModel map[building.Room]TransitionProbs

// Names of motion rates, used in MotionReliability.Undefined.
const (
	RateMotion   = "motion"
	RateNoMotion = "no motion"
)

// MotionReliability describes how well a motion sensor tracks true occupancy.
// A rate whose denominator was zero is reported as 0 and named in Undefined.
type MotionReliability struct {
	Motion    float64  `json:"motion"`
	NoMotion  float64  `json:"no motion"`
	Undefined []string `json:"undefined,omitempty"`
}

// Defined reports whether the named rate was estimated from data
func (m MotionReliability) Defined(rate string) bool {
	for _, u := range m.Undefined {
		if u == rate {
			return false
		}
	}
	return true
}

// SensorReliability holds reliability statistics for every sensor and robot.
// Cameras and robots without a usable observation are reported as 0 and
// named in Undefined; a 0 outside Undefined is a measured accuracy.
type SensorReliability struct {
	Motion    map[string]MotionReliability `json:"motion"`
	Cameras   map[string]float64           `json:"cameras"`
	Robots    map[string]float64           `json:"robots"`
	Undefined []string                     `json:"undefined,omitempty"`
}

// AccuracyDefined reports whether a camera or robot accuracy was estimated from data
func (s SensorReliability) AccuracyDefined(id string) bool {
	for _, u := range s.Undefined {
		if u == id {
			return false
		}
	}
	return true
}

// Params bundles everything learned from the historical logs. It is read-only
// once returned by Train or a Store.
type Params struct {
	Priors      Priors
	Reliability SensorReliability
	Transitions TransitionModel
}

// Prior returns the prior occupancy probability of a room at a slot.
// Slots without observations yield 0.
func (p *Params) Prior(room building.Room, slot building.TimeSlot) (float64, error) {
	slots, ok := p.Priors[room]
	if !ok {
		return 0, fmt.Errorf("prior lookup: %w: %q", building.ErrUnknownRoom, room)
	}
	return slots[slot], nil
}

// Transition returns the transition probabilities of a room
func (p *Params) Transition(room building.Room) (TransitionProbs, error) {
	probs, ok := p.Transitions[room]
	if !ok {
		return TransitionProbs{}, fmt.Errorf("transition lookup: %w: %q", building.ErrUnknownRoom, room)
	}
	return probs, nil
}

// Validate checks that every room of the building is covered and that all
// probabilities lie in [0,1]
func (p *Params) Validate() error {
	for room := range p.Priors {
		if !room.Valid() {
			return fmt.Errorf("priors: %w: %q", building.ErrUnknownRoom, room)
		}
	}
	for room := range p.Transitions {
		if !room.Valid() {
			return fmt.Errorf("transitions: %w: %q", building.ErrUnknownRoom, room)
		}
	}

	for _, room := range building.Rooms() {
		slots, ok := p.Priors[room]
		if !ok {
			return fmt.Errorf("priors missing room %s", room)
		}
		for slot, v := range slots {
			if !isProbability(v) {
				return fmt.Errorf("prior %s@%s out of range: %v", room, slot, v)
			}
		}
		probs, ok := p.Transitions[room]
		if !ok {
			return fmt.Errorf("transitions missing room %s", room)
		}
		if !isProbability(probs.StayOccupied) || !isProbability(probs.BecomeOccupied) {
			return fmt.Errorf("transition probabilities of %s out of range: %+v", room, probs)
		}
	}

	for id, m := range p.Reliability.Motion {
		if !isProbability(m.Motion) || !isProbability(m.NoMotion) {
			return fmt.Errorf("motion reliability of %s out of range: %+v", id, m)
		}
	}
	for id, v := range p.Reliability.Cameras {
		if !isProbability(v) {
			return fmt.Errorf("camera reliability of %s out of range: %v", id, v)
		}
	}
	for id, v := range p.Reliability.Robots {
		if !isProbability(v) {
			return fmt.Errorf("robot reliability of %s out of range: %v", id, v)
		}
	}
	for _, id := range p.Reliability.Undefined {
		_, camera := p.Reliability.Cameras[id]
		_, robot := p.Reliability.Robots[id]
		if !camera && !robot {
			return fmt.Errorf("undefined reliability names unknown sensor %q", id)
		}
	}

	return nil
}

func isProbability(v float64) bool {
	return v >= 0 && v <= 1
}
