package simulator

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-occupancy/internal/dataset"
	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

func allLights(action light.Action) light.Actions {
	actions := make(light.Actions)
	for _, room := range building.Rooms() {
		actions[building.LightFor(room)] = action
	}
	return actions
}

func occupiedRecord(tod time.Duration, rooms ...building.Room) *dataset.Record {
	rec := dataset.NewRecord(tod)
	for _, room := range rooms {
		rec.Occupancy[room] = 1
	}
	return rec
}

func TestCostModel(t *testing.T) {
	cm := CostModel{LightOnCost: 1, MissedOccupancyPenalty: 4}
	rec := occupiedRecord(9*time.Hour, "r1", "r2")

	tests := []struct {
		name    string
		actions light.Actions
		want    float64
	}{
		{"all off misses occupants", allLights(light.ActionOff), 8},
		{"all on", allLights(light.ActionOn), 34},
		{"only occupied on", func() light.Actions {
			a := allLights(light.ActionOff)
			a["lights1"] = light.ActionOn
			a["lights2"] = light.ActionOn
			return a
		}(), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cm.Cost(rec, tt.actions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCostModelIncompleteActions(t *testing.T) {
	actions := allLights(light.ActionOff)
	delete(actions, "lights34")

	_, err := DefaultCostModel().Cost(dataset.NewRecord(0), actions)
	assert.True(t, errors.Is(err, ErrIncompleteActions))
}

func TestReplayTimesteps(t *testing.T) {
	records := []*dataset.Record{
		occupiedRecord(8 * time.Hour),
		occupiedRecord(8*time.Hour+15*time.Minute, "r3"),
	}
	r := NewReplay(records, DefaultCostModel())
	assert.Equal(t, 2, r.Len())

	_, err := r.CostTimestep(allLights(light.ActionOff))
	assert.True(t, errors.Is(err, ErrNoTimestep))

	ctx := context.Background()
	rec, err := r.Timestep(ctx)
	require.NoError(t, err)
	assert.Same(t, records[0], rec)

	rec, err = r.Timestep(ctx)
	require.NoError(t, err)
	assert.Same(t, records[1], rec)
	cost, err := r.CostTimestep(allLights(light.ActionOff))
	require.NoError(t, err)
	assert.Equal(t, 4.0, cost)

	_, err = r.Timestep(ctx)
	assert.Equal(t, io.EOF, err)
	_, err = r.CostTimestep(allLights(light.ActionOff))
	assert.True(t, errors.Is(err, ErrNoTimestep))
}

type constantDecider struct {
	action light.Action
	calls  int
}

func (d *constantDecider) Decide(rec *dataset.Record) (light.Actions, error) {
	d.calls++
	return allLights(d.action), nil
}

func TestRun(t *testing.T) {
	records := []*dataset.Record{
		occupiedRecord(8*time.Hour, "r1"),
		occupiedRecord(8*time.Hour+15*time.Minute, "r1", "r2"),
		occupiedRecord(8*time.Hour + 30*time.Minute),
	}
	factory := ReplayFactory(records, DefaultCostModel())

	sim, err := factory()
	require.NoError(t, err)
	off := &constantDecider{action: light.ActionOff}
	out, err := Run(context.Background(), sim, off)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, 12.0, out.Cost)
	assert.Equal(t, 3, off.calls)

	// a fresh simulator starts from the beginning again
	sim, err = factory()
	require.NoError(t, err)
	out, err = Run(context.Background(), sim, &constantDecider{action: light.ActionOn})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, 102.0, out.Cost)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := NewReplay([]*dataset.Record{occupiedRecord(8 * time.Hour)}, DefaultCostModel())
	_, err := Run(ctx, sim, &constantDecider{action: light.ActionOff})
	assert.True(t, errors.Is(err, context.Canceled))
}
