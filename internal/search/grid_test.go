package search

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-occupancy/internal/light"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Values
		expectErr bool
	}{
		{"range", "0.5:0.9:0.1", Values{0.5, 0.6, 0.7, 0.8, 0.9}, false},
		{"half steps", "0.1:0.3:0.05", Values{0.1, 0.15, 0.2, 0.25, 0.3}, false},
		{"range with spaces", " 0.2 : 0.4 : 0.1 ", Values{0.2, 0.3, 0.4}, false},
		{"single point range", "0.3:0.3:0.1", Values{0.3}, false},
		{"list", "0.2,0.4, 0.6", Values{0.2, 0.4, 0.6}, false},
		{"single value", "0.5", Values{0.5}, false},
		{"empty", "", nil, true},
		{"missing step", "0.1:0.5", nil, true},
		{"zero step", "0.1:0.5:0", nil, true},
		{"inverted range", "0.5:0.1:0.1", nil, true},
		{"too many values", "0:100:0.01", nil, true},
		{"bad number", "0.1,abc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValues(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()
	require.NoError(t, g.Validate())
	assert.Equal(t, 3125, g.Size())
	assert.Len(t, g.Combinations(), 3125)

	valid, skipped := g.ValidCombinations()
	// 15 final-weight triples from {0.2..0.6} sum to 1
	assert.Len(t, valid, 375)
	assert.Equal(t, 2750, skipped)
	for _, w := range valid {
		assert.True(t, w.Valid())
	}
}

func TestCombinationsOrder(t *testing.T) {
	g := Grid{
		DBNPriorWeights:       Values{0.5, 0.9},
		FinalPriorWeights:     Values{0.2},
		FinalPredictedWeights: Values{0.2},
		FinalPosteriorWeights: Values{0.6},
		Thresholds:            Values{0.1, 0.3},
	}

	got := g.Combinations()
	want := []light.WeightConfiguration{
		{DBNPriorWeight: 0.5, FinalPriorWeight: 0.2, FinalPredictedWeight: 0.2, FinalPosteriorWeight: 0.6, Threshold: 0.1},
		{DBNPriorWeight: 0.5, FinalPriorWeight: 0.2, FinalPredictedWeight: 0.2, FinalPosteriorWeight: 0.6, Threshold: 0.3},
		{DBNPriorWeight: 0.9, FinalPriorWeight: 0.2, FinalPredictedWeight: 0.2, FinalPosteriorWeight: 0.6, Threshold: 0.1},
		{DBNPriorWeight: 0.9, FinalPriorWeight: 0.2, FinalPredictedWeight: 0.2, FinalPosteriorWeight: 0.6, Threshold: 0.3},
	}
	assert.Equal(t, want, got)
}

func TestGridValidate(t *testing.T) {
	g := DefaultGrid()
	g.Thresholds = nil
	assert.True(t, errors.Is(g.Validate(), ErrEmptyGrid))

	g = DefaultGrid()
	g.DBNPriorWeights = Values{0.5, 1.5}
	assert.Error(t, g.Validate())
}

func TestLoadGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	content := `dbn_prior_weight: "0.5:0.6:0.1"
final_prior_weight: 0.5
threshold: [0.2, 0.3]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	g, err := LoadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, Values{0.5, 0.6}, g.DBNPriorWeights)
	assert.Equal(t, Values{0.5}, g.FinalPriorWeights)
	assert.Equal(t, Values{0.2, 0.3}, g.Thresholds)
	assert.Equal(t, DefaultGrid().FinalPosteriorWeights, g.FinalPosteriorWeights)
}

func TestLoadGridErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadGrid(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("threshold: \"0.3:0.1:0.1\"\n"), 0o644))
	_, err = LoadGrid(bad)
	assert.Error(t, err)

	outOfRange := filepath.Join(dir, "range.yaml")
	require.NoError(t, os.WriteFile(outOfRange, []byte("threshold: [2]\n"), 0o644))
	_, err = LoadGrid(outOfRange)
	assert.Error(t, err)
}
