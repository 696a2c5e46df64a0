package estimator

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// TransitionWindow is the number of consecutive samples (about one minute)
// within which state transitions are counted.
const TransitionWindow = 4

// Estimator learns model parameters from historical records
type Estimator struct {
	layout *building.Layout
	window building.Window
	logger *slog.Logger
}

// NewEstimator creates an estimator for the given layout and operating window
func NewEstimator(layout *building.Layout, window building.Window, logger *slog.Logger) *Estimator {
	return &Estimator{
		layout: layout,
		window: window,
		logger: logger,
	}
}

// Train computes priors, sensor reliabilities and transition probabilities
func (e *Estimator) Train(records []*dataset.Record) (*Params, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records to train on", dataset.ErrData)
	}

	params := &Params{
		Priors:      e.priors(records),
		Reliability: e.reliability(records),
		Transitions: transitions(records),
	}

	e.logger.Info("Training completed",
		"rows", len(records),
		"rooms", len(params.Priors),
		"slots", len(e.window.Slots()),
		"motion_sensors", len(params.Reliability.Motion),
		"cameras", len(params.Reliability.Cameras),
		"robots", len(params.Reliability.Robots))

	return params, nil
}

// priors computes, per room and slot, the fraction of rows with occupants
func (e *Estimator) priors(records []*dataset.Record) Priors {
	bySlot := make(map[building.TimeSlot][]*dataset.Record)
	outside := 0
	for _, rec := range records {
		slot := building.SlotOf(rec.TimeOfDay)
		if !e.window.Contains(slot) {
			outside++
			continue
		}
		bySlot[slot] = append(bySlot[slot], rec)
	}
	if outside > 0 {
		e.logger.Debug("Rows outside the prior window ignored for priors",
			"rows", outside,
			"window_start", e.window.Start,
			"window_end", e.window.End)
	}

	priors := make(Priors, building.RoomCount)
	for _, room := range building.Rooms() {
		table := make(map[building.TimeSlot]float64)
		for _, slot := range e.window.Slots() {
			rows := bySlot[slot]
			if len(rows) == 0 {
				table[slot] = 0
				continue
			}
			indicators := make([]float64, len(rows))
			for i, rec := range rows {
				if rec.Occupied(room) {
					indicators[i] = 1
				}
			}
			table[slot] = stat.Mean(indicators, nil)
		}
		priors[room] = table
	}

	return priors
}

func (e *Estimator) reliability(records []*dataset.Record) SensorReliability {
	rel := SensorReliability{
		Motion:  make(map[string]MotionReliability),
		Cameras: make(map[string]float64),
		Robots:  make(map[string]float64),
	}

	for _, id := range e.layout.MotionSensorIDs() {
		rel.Motion[id] = e.motionReliability(id, e.layout.MotionSensors[id], records)
	}

	for _, id := range e.layout.CameraIDs() {
		room := e.layout.Cameras[id]
		correct, total := 0, 0
		for _, rec := range records {
			reading, ok := rec.Cameras[id]
			if !ok {
				continue
			}
			if (reading.Count > 0) == rec.Occupied(room) {
				correct++
			}
			total++
		}
		if total == 0 {
			e.logger.Warn("Camera has no observations, reliability undefined", "camera", id)
			rel.Undefined = append(rel.Undefined, id)
		}
		rel.Cameras[id] = ratio(correct, total)
	}

	for _, id := range e.layout.Robots {
		correct, total := 0, 0
		for _, rec := range records {
			report, ok := rec.Robots[id]
			if !ok {
				continue
			}
			room, named := report.Room()
			if !named {
				continue
			}
			actual := rec.Occupancy[room]
			if (report.Count > 0 && actual > 0) || (report.Count == 0 && actual == 0) {
				correct++
			}
			total++
		}
		if total == 0 {
			e.logger.Warn("Robot never reported a room, reliability undefined", "robot", id)
			rel.Undefined = append(rel.Undefined, id)
		}
		rel.Robots[id] = ratio(correct, total)
	}

	return rel
}

func (e *Estimator) motionReliability(id string, room building.Room, records []*dataset.Record) MotionReliability {
	var tp, fp, tn, fn int
	for _, rec := range records {
		detected := rec.Motion[id].Detected
		occupied := rec.Occupied(room)
		switch {
		case detected && occupied:
			tp++
		case detected && !occupied:
			fp++
		case !detected && !occupied:
			tn++
		default:
			fn++
		}
	}

	m := MotionReliability{
		Motion:   ratio(tp, tp+fn),
		NoMotion: ratio(tn, tn+fp),
	}
	if tp+fn == 0 {
		m.Undefined = append(m.Undefined, RateMotion)
	}
	if tn+fp == 0 {
		m.Undefined = append(m.Undefined, RateNoMotion)
	}
	if len(m.Undefined) > 0 {
		e.logger.Warn("Motion sensor reliability undefined, reported as 0",
			"sensor", id,
			"room", room,
			"undefined", m.Undefined)
	}

	return m
}

// transitions counts state changes inside consecutive fixed-size windows
func transitions(records []*dataset.Record) TransitionModel {
	model := make(TransitionModel, building.RoomCount)

	for _, room := range building.Rooms() {
		var stay, fromOccupied, become, fromUnoccupied int

		for start := 0; start < len(records); start += TransitionWindow {
			end := min(start+TransitionWindow, len(records))
			prev := records[start].Occupied(room)
			for _, rec := range records[start+1 : end] {
				state := rec.Occupied(room)
				if prev {
					fromOccupied++
					if state {
						stay++
					}
				} else {
					fromUnoccupied++
					if state {
						become++
					}
				}
				prev = state
			}
		}

		model[room] = TransitionProbs{
			StayOccupied:   float64(stay) / float64(max(fromOccupied, 1)),
			BecomeOccupied: float64(become) / float64(max(fromUnoccupied, 1)),
		}
	}

	return model
}

// ratio divides two counts, resolving an empty denominator to 0
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
