package occupancy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

func testReliability() estimator.SensorReliability {
	return estimator.SensorReliability{
		Motion: map[string]estimator.MotionReliability{
			"motion_sensor1": {Motion: 0.8, NoMotion: 0.9},
			"motion_sensor2": {Motion: 0, NoMotion: 1, Undefined: []string{estimator.RateMotion}},
		},
		Cameras: map[string]float64{
			"camera1": 0.9,
			"camera2": 0,
		},
		Robots: map[string]float64{
			"robot1": 0.7,
			"robot2": 0.6,
		},
		Undefined: []string{"camera2"},
	}
}

func newTestCalculator() *PosteriorCalculator {
	return NewPosteriorCalculator(building.DefaultLayout(), testReliability())
}

func TestPosteriorWithoutEvidence(t *testing.T) {
	calc := newTestCalculator()
	rec := dataset.NewRecord(9 * time.Hour)

	for _, p := range []float64{0, 0.1, 0.37, 0.5, 1} {
		got, err := calc.Calculate(p, rec, "r1")
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	// r5 carries no sensor at all
	rec.Motion["motion_sensor1"] = dataset.MotionReading{Detected: true}
	got, err := calc.Calculate(0.42, rec, "r5")
	require.NoError(t, err)
	assert.Equal(t, 0.42, got)
}

func TestPosteriorMotion(t *testing.T) {
	calc := newTestCalculator()

	detected := dataset.NewRecord(9 * time.Hour)
	detected.Motion["motion_sensor1"] = dataset.MotionReading{Detected: true}

	got, err := calc.Calculate(0.5, detected, "r1")
	require.NoError(t, err)
	// 0.5*0.8 / (0.5*0.8 + 0.5*0.1)
	assert.InDelta(t, 0.4/0.45, got, 1e-12)

	silent := dataset.NewRecord(9 * time.Hour)
	silent.Motion["motion_sensor1"] = dataset.MotionReading{Detected: false}

	got, err = calc.Calculate(0.5, silent, "r1")
	require.NoError(t, err)
	// 0.5*0.2 / (0.5*0.2 + 0.5*0.9)
	assert.InDelta(t, 0.1/0.55, got, 1e-12)
}

func TestPosteriorSkipsUndefinedReliability(t *testing.T) {
	calc := newTestCalculator()
	rec := dataset.NewRecord(9 * time.Hour)
	rec.Motion["motion_sensor2"] = dataset.MotionReading{Detected: true}
	rec.Cameras["camera2"] = dataset.CameraReading{Count: 3}

	got, err := calc.Calculate(0.3, rec, "r14")
	require.NoError(t, err)
	assert.Equal(t, 0.3, got)

	got, err = calc.Calculate(0.3, rec, "r21")
	require.NoError(t, err)
	assert.Equal(t, 0.3, got)
}

func TestPosteriorUsesMeasuredZeroAccuracy(t *testing.T) {
	rel := testReliability()
	rel.Robots["robot2"] = 0
	calc := NewPosteriorCalculator(building.DefaultLayout(), rel)

	// a robot that is always wrong inverts its report
	rec := dataset.NewRecord(9 * time.Hour)
	rec.Robots["robot2"] = dataset.RobotReading{Location: "r10", Count: 2}
	got, err := calc.Calculate(0.5, rec, "r10")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	rec.Robots["robot2"] = dataset.RobotReading{Location: "r10", Count: 0}
	got, err = calc.Calculate(0.5, rec, "r10")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	// the same value marked undefined carries no evidence
	rel.Undefined = append(rel.Undefined, "robot2")
	calc = NewPosteriorCalculator(building.DefaultLayout(), rel)
	got, err = calc.Calculate(0.5, rec, "r10")
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
}

func TestPosteriorCameraAndRobot(t *testing.T) {
	calc := newTestCalculator()
	rec := dataset.NewRecord(9 * time.Hour)
	rec.Cameras["camera1"] = dataset.CameraReading{Count: 2}
	rec.Robots["robot1"] = dataset.RobotReading{Location: "r3", Count: 1}
	rec.Robots["robot2"] = dataset.RobotReading{Location: "c1", Count: 4}

	evidence, err := calc.Evidence(rec, "r3")
	require.NoError(t, err)
	require.Len(t, evidence, 2)
	assert.Equal(t, "camera1", evidence[0].Sensor)
	assert.Equal(t, "robot1", evidence[1].Sensor)

	got, err := calc.Calculate(0.5, rec, "r3")
	require.NoError(t, err)
	l1 := 0.9 * 0.7
	l0 := 0.1 * 0.3
	assert.InDelta(t, l1/(l1+l0), got, 1e-12)

	// a robot that sees nobody counts against occupancy
	rec = dataset.NewRecord(9 * time.Hour)
	rec.Robots["robot2"] = dataset.RobotReading{Location: "r10", Count: 0}
	got, err = calc.Calculate(0.5, rec, "r10")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got, 1e-12)
}

func TestPosteriorIgnoresDoors(t *testing.T) {
	calc := newTestCalculator()
	rec := dataset.NewRecord(9 * time.Hour)
	rec.Doors["door_sensor1"] = dataset.DoorReading{Count: 1}

	got, err := calc.Calculate(0.25, rec, "r2")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)
}

func TestPosteriorMonotonicInPrediction(t *testing.T) {
	calc := newTestCalculator()
	rec := dataset.NewRecord(9 * time.Hour)
	rec.Motion["motion_sensor1"] = dataset.MotionReading{Detected: true}

	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.05 {
		got, err := calc.Calculate(p, rec, "r1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
		prev = got
	}
}

func TestPosteriorDegenerateLikelihood(t *testing.T) {
	rel := testReliability()
	rel.Cameras["camera1"] = 1
	calc := NewPosteriorCalculator(building.DefaultLayout(), rel)

	rec := dataset.NewRecord(9 * time.Hour)
	rec.Cameras["camera1"] = dataset.CameraReading{Count: 1}

	got, err := calc.Calculate(0, rec, "r3")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = calc.Calculate(0.6, rec, "r3")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestPosteriorUnknownRoom(t *testing.T) {
	calc := newTestCalculator()
	_, err := calc.Calculate(0.5, dataset.NewRecord(0), "r35")
	assert.True(t, errors.Is(err, building.ErrUnknownRoom))
}
