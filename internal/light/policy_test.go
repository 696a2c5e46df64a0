package light

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testParams() *estimator.Params {
	params := &estimator.Params{
		Priors:      make(estimator.Priors),
		Transitions: make(estimator.TransitionModel),
		Reliability: estimator.SensorReliability{
			Motion: map[string]estimator.MotionReliability{
				"motion_sensor1": {Motion: 0.8, NoMotion: 0.9},
			},
			Cameras: map[string]float64{},
			Robots:  map[string]float64{},
		},
	}
	for _, room := range building.Rooms() {
		slots := make(map[building.TimeSlot]float64)
		for _, slot := range building.DefaultWindow().Slots() {
			slots[slot] = 0.5
		}
		params.Priors[room] = slots
		params.Transitions[room] = estimator.TransitionProbs{StayOccupied: 0.9, BecomeOccupied: 0.1}
	}
	return params
}

func defaultWeights() WeightConfiguration {
	return WeightConfiguration{
		DBNPriorWeight:       0.5,
		FinalPriorWeight:     0.2,
		FinalPredictedWeight: 0.2,
		FinalPosteriorWeight: 0.6,
		Threshold:            0.2,
	}
}

func newTestPolicy(w WeightConfiguration) *Policy {
	return NewPolicy(testParams(), building.DefaultLayout(), building.DefaultWindow(), w, testLogger())
}

func decisionFor(t *testing.T, decisions []Decision, room building.Room) Decision {
	t.Helper()
	for _, d := range decisions {
		if d.Room == room {
			return d
		}
	}
	t.Fatalf("no decision for %s", room)
	return Decision{}
}

func TestPolicyEvaluate(t *testing.T) {
	p := newTestPolicy(defaultWeights())
	assert.Equal(t, defaultWeights(), p.Weights())

	rec := dataset.NewRecord(9 * time.Hour)
	rec.Motion["motion_sensor1"] = dataset.MotionReading{Detected: true}

	decisions, err := p.Evaluate(rec)
	require.NoError(t, err)
	require.Len(t, decisions, building.RoomCount)

	// zero initial belief: predicted = 0.5*0.1 + 0.5*0.5
	r1 := decisionFor(t, decisions, "r1")
	assert.True(t, r1.HasEvidence)
	assert.InDelta(t, 0.3, r1.Predicted, 1e-12)
	posterior := 0.24 / 0.31
	assert.InDelta(t, posterior, r1.Posterior, 1e-12)
	assert.InDelta(t, 0.1+0.06+0.6*posterior, r1.Final, 1e-12)
	assert.Equal(t, "lights1", r1.Light)
	assert.Equal(t, ActionOn, r1.Action)

	belief, err := p.Model().Belief("r1")
	require.NoError(t, err)
	assert.InDelta(t, posterior, belief, 1e-12)

	// assigned sensor without reading: evidence branch, posterior is the prediction
	r14 := decisionFor(t, decisions, "r14")
	assert.True(t, r14.HasEvidence)
	assert.InDelta(t, 0.3, r14.Posterior, 1e-12)
	assert.InDelta(t, 0.34, r14.Final, 1e-12)

	// no sensor: prior and prediction renormalized, belief untouched
	r5 := decisionFor(t, decisions, "r5")
	assert.False(t, r5.HasEvidence)
	assert.InDelta(t, 0.4, r5.Final, 1e-12)
	belief, err = p.Model().Belief("r5")
	require.NoError(t, err)
	assert.Zero(t, belief)
}

func TestPolicyDecideThreshold(t *testing.T) {
	w := defaultWeights()
	w.Threshold = 0.45
	p := newTestPolicy(w)

	rec := dataset.NewRecord(9 * time.Hour)
	rec.Motion["motion_sensor1"] = dataset.MotionReading{Detected: true}

	actions, err := p.Decide(rec)
	require.NoError(t, err)
	assert.Len(t, actions, building.RoomCount)
	assert.Equal(t, ActionOn, actions["lights1"])
	assert.Equal(t, ActionOff, actions["lights5"])
	assert.Equal(t, ActionOff, actions["lights14"])
	assert.Equal(t, 1, actions.On())
}

func TestPolicyRobotCreatesEvidence(t *testing.T) {
	p := newTestPolicy(defaultWeights())

	rec := dataset.NewRecord(9 * time.Hour)
	rec.Robots["robot1"] = dataset.RobotReading{Location: "r7", Count: 2}
	rec.Robots["robot2"] = dataset.RobotReading{Location: "c2", Count: 1}

	decisions, err := p.Evaluate(rec)
	require.NoError(t, err)

	assert.True(t, decisionFor(t, decisions, "r7").HasEvidence)
	assert.False(t, decisionFor(t, decisions, "r8").HasEvidence)
}

func TestPolicyClampsLateTimestamps(t *testing.T) {
	p := newTestPolicy(defaultWeights())

	decisions, err := p.Evaluate(dataset.NewRecord(19*time.Hour + 10*time.Minute))
	require.NoError(t, err)
	for _, d := range decisions {
		assert.Equal(t, "17:45", d.Slot.String())
		assert.InDelta(t, 0.5, d.Prior, 1e-12)
	}
}

func TestPolicyBeliefCarriesOver(t *testing.T) {
	p := newTestPolicy(defaultWeights())

	rec := dataset.NewRecord(9 * time.Hour)
	rec.Motion["motion_sensor1"] = dataset.MotionReading{Detected: true}
	_, err := p.Evaluate(rec)
	require.NoError(t, err)

	next := dataset.NewRecord(9*time.Hour + 15*time.Minute)
	decisions, err := p.Evaluate(next)
	require.NoError(t, err)

	posterior := 0.24 / 0.31
	want := 0.5*(posterior*0.9+(1-posterior)*0.1) + 0.5*0.5
	assert.InDelta(t, want, decisionFor(t, decisions, "r1").Predicted, 1e-12)
}

func TestBlendWithoutEvidence(t *testing.T) {
	w := WeightConfiguration{FinalPriorWeight: 0.2, FinalPredictedWeight: 0.6}
	assert.InDelta(t, 0.25*0.8+0.75*0.4, blendWithoutEvidence(w, 0.8, 0.4), 1e-12)

	zero := WeightConfiguration{FinalPosteriorWeight: 1}
	assert.Equal(t, 0.4, blendWithoutEvidence(zero, 0.8, 0.4))
}
