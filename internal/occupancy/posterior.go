package occupancy

import (
	"fmt"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// Likelihood is one piece of sensor evidence about a room:
// P(observation | occupied) and P(observation | empty).
type Likelihood struct {
	Sensor   string
	Occupied float64
	Empty    float64
}

// PosteriorCalculator fuses predicted occupancy with one timestep of sensor readings
type PosteriorCalculator struct {
	layout      *building.Layout
	reliability estimator.SensorReliability
}

// NewPosteriorCalculator creates a calculator using the learned reliabilities
func NewPosteriorCalculator(layout *building.Layout, reliability estimator.SensorReliability) *PosteriorCalculator {
	return &PosteriorCalculator{
		layout:      layout,
		reliability: reliability,
	}
}

// Calculate applies Bayes' rule with predicted as the prior. Readings are
// treated as conditionally independent given occupancy. Without relevant
// evidence the predicted probability is returned unchanged.
func (c *PosteriorCalculator) Calculate(predicted float64, rec *dataset.Record, room building.Room) (float64, error) {
	evidence, err := c.Evidence(rec, room)
	if err != nil {
		return 0, err
	}
	if len(evidence) == 0 {
		return predicted, nil
	}

	pOccupied, pEmpty := 1.0, 1.0
	for _, e := range evidence {
		pOccupied *= e.Occupied
		pEmpty *= e.Empty
	}

	num := predicted * pOccupied
	den := num + (1-predicted)*pEmpty
	if den == 0 {
		return predicted, nil
	}
	return num / den, nil
}

// Evidence lists the likelihoods of every informative reading about the room
func (c *PosteriorCalculator) Evidence(rec *dataset.Record, room building.Room) ([]Likelihood, error) {
	if !room.Valid() {
		return nil, fmt.Errorf("posterior: %w: %q", building.ErrUnknownRoom, room)
	}

	var evidence []Likelihood

	for _, id := range c.layout.MotionSensorIDs() {
		if c.layout.MotionSensors[id] != room {
			continue
		}
		reading, ok := rec.Motion[id]
		if !ok {
			continue
		}
		rel, ok := c.reliability.Motion[id]
		if !ok {
			continue
		}
		if l, ok := motionLikelihood(id, rel, reading); ok {
			evidence = append(evidence, l)
		}
	}

	for _, id := range c.layout.CameraIDs() {
		if c.layout.Cameras[id] != room {
			continue
		}
		reading, ok := rec.Cameras[id]
		if !ok {
			continue
		}
		accuracy, ok := c.reliability.Cameras[id]
		if !ok || !c.reliability.AccuracyDefined(id) {
			continue
		}
		evidence = append(evidence, accuracyLikelihood(id, accuracy, reading.Count > 0))
	}

	for _, id := range c.layout.Robots {
		report, ok := rec.Robots[id]
		if !ok {
			continue
		}
		if reported, named := report.Room(); !named || reported != room {
			continue
		}
		accuracy, ok := c.reliability.Robots[id]
		if !ok || !c.reliability.AccuracyDefined(id) {
			continue
		}
		evidence = append(evidence, accuracyLikelihood(id, accuracy, report.Count > 0))
	}

	return evidence, nil
}

// motionLikelihood uses the sensor's hit rate for detections and its
// correct-rejection rate for silence. Undefined rates make the reading uninformative.
func motionLikelihood(id string, rel estimator.MotionReliability, reading dataset.MotionReading) (Likelihood, bool) {
	if !rel.Defined(estimator.RateMotion) || !rel.Defined(estimator.RateNoMotion) {
		return Likelihood{}, false
	}
	if reading.Detected {
		return Likelihood{Sensor: id, Occupied: rel.Motion, Empty: 1 - rel.NoMotion}, true
	}
	return Likelihood{Sensor: id, Occupied: 1 - rel.Motion, Empty: rel.NoMotion}, true
}

// accuracyLikelihood treats a single accuracy rate as symmetric: a positive
// report is right with probability accuracy whether the room is occupied or not.
func accuracyLikelihood(id string, accuracy float64, positive bool) Likelihood {
	if positive {
		return Likelihood{Sensor: id, Occupied: accuracy, Empty: 1 - accuracy}
	}
	return Likelihood{Sensor: id, Occupied: 1 - accuracy, Empty: accuracy}
}
