// Package search finds the decision weights with the lowest simulated cost
// by exhaustive grid search.
package search

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/jeeves-occupancy/internal/light"
)

// ErrEmptyGrid is returned when a grid has no valid combination to evaluate
var ErrEmptyGrid = errors.New("empty search grid")

// maxValues caps the candidates a single range spec may expand to
const maxValues = 1000

// Values is one dimension's candidate list. In YAML it is either a sequence
// of numbers or a string accepted by ParseValues.
type Values []float64

// UnmarshalYAML accepts "min:max:step", "a,b,c" or a YAML sequence
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []float64
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = list
		return nil
	case yaml.ScalarNode:
		list, err := ParseValues(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = list
		return nil
	}
	return fmt.Errorf("line %d: expected a list or range spec", node.Line)
}

// Grid holds the candidate values of the five weight dimensions
type Grid struct {
	DBNPriorWeights       Values `yaml:"dbn_prior_weight"`
	FinalPriorWeights     Values `yaml:"final_prior_weight"`
	FinalPredictedWeights Values `yaml:"final_predicted_weight"`
	FinalPosteriorWeights Values `yaml:"final_posterior_weight"`
	Thresholds            Values `yaml:"threshold"`
}

// DefaultGrid returns the standard search grid
func DefaultGrid() Grid {
	return Grid{
		DBNPriorWeights:       Values{0.5, 0.6, 0.7, 0.8, 0.9},
		FinalPriorWeights:     Values{0.2, 0.3, 0.4, 0.5, 0.6},
		FinalPredictedWeights: Values{0.2, 0.3, 0.4, 0.5, 0.6},
		FinalPosteriorWeights: Values{0.2, 0.3, 0.4, 0.5, 0.6},
		Thresholds:            Values{0.1, 0.15, 0.2, 0.25, 0.3},
	}
}

// LoadGrid reads a YAML grid file. Dimensions missing from the file keep
// their default candidates.
func LoadGrid(path string) (Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Grid{}, fmt.Errorf("failed to read grid file: %w", err)
	}

	g := DefaultGrid()
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Grid{}, fmt.Errorf("failed to parse grid file %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return Grid{}, fmt.Errorf("grid file %s: %w", path, err)
	}
	return g, nil
}

func (g Grid) dimensions() []struct {
	name   string
	values Values
} {
	return []struct {
		name   string
		values Values
	}{
		{"dbn_prior_weight", g.DBNPriorWeights},
		{"final_prior_weight", g.FinalPriorWeights},
		{"final_predicted_weight", g.FinalPredictedWeights},
		{"final_posterior_weight", g.FinalPosteriorWeights},
		{"threshold", g.Thresholds},
	}
}

// Validate checks every dimension has candidates in [0,1]
func (g Grid) Validate() error {
	for _, dim := range g.dimensions() {
		if len(dim.values) == 0 {
			return fmt.Errorf("%w: no candidates for %s", ErrEmptyGrid, dim.name)
		}
		for _, v := range dim.values {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return fmt.Errorf("%s candidate %v outside [0,1]", dim.name, v)
			}
		}
	}
	return nil
}

// Size returns the number of combinations in the Cartesian product
func (g Grid) Size() int {
	n := 1
	for _, dim := range g.dimensions() {
		n *= len(dim.values)
	}
	return n
}

// Combinations enumerates the Cartesian product with the dbn prior weight
// varying slowest and the threshold fastest.
func (g Grid) Combinations() []light.WeightConfiguration {
	combos := make([]light.WeightConfiguration, 0, g.Size())
	for _, dbn := range g.DBNPriorWeights {
		for _, prior := range g.FinalPriorWeights {
			for _, predicted := range g.FinalPredictedWeights {
				for _, posterior := range g.FinalPosteriorWeights {
					for _, threshold := range g.Thresholds {
						combos = append(combos, light.WeightConfiguration{
							DBNPriorWeight:       dbn,
							FinalPriorWeight:     prior,
							FinalPredictedWeight: predicted,
							FinalPosteriorWeight: posterior,
							Threshold:            threshold,
						})
					}
				}
			}
		}
	}
	return combos
}

// ValidCombinations returns the combinations whose final weights sum to 1,
// in enumeration order, and the number skipped.
func (g Grid) ValidCombinations() ([]light.WeightConfiguration, int) {
	all := g.Combinations()
	valid := make([]light.WeightConfiguration, 0, len(all))
	for _, w := range all {
		if w.Valid() {
			valid = append(valid, w)
		}
	}
	return valid, len(all) - len(valid)
}

// ParseValues parses either a "min:max:step" range (inclusive) or a comma
// separated list of numbers.
func ParseValues(s string) (Values, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty candidate list")
	}
	if strings.Contains(s, ":") {
		return parseRange(s)
	}

	var out Values
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid candidate %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseRange(s string) (Values, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var bounds [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range value %q: %w", part, err)
		}
		bounds[i] = v
	}
	min, max, step := bounds[0], bounds[1], bounds[2]

	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %v", step)
	}
	if min > max {
		return nil, fmt.Errorf("range min %v greater than max %v", min, max)
	}
	if (max-min)/step+1 > maxValues {
		return nil, fmt.Errorf("range %q expands to more than %d values", s, maxValues)
	}

	// rounded to 6 decimals
	var out Values
	for i := 0; ; i++ {
		v := math.Round((min+float64(i)*step)*1e6) / 1e6
		if v > max+step/1000 {
			break
		}
		out = append(out, v)
	}
	return out, nil
}
