// Package light turns occupancy beliefs into per-room light actions.
package light

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidConfiguration marks weights whose final blend does not sum to 1
var ErrInvalidConfiguration = errors.New("invalid weight configuration")

// WeightSumTolerance is the allowed deviation of the final weights from 1
const WeightSumTolerance = 1e-6

// WeightConfiguration is one point of the decision policy's parameter space
type WeightConfiguration struct {
	DBNPriorWeight       float64 `json:"dbn_prior_weight" yaml:"dbn_prior_weight"`
	FinalPriorWeight     float64 `json:"final_prior_weight" yaml:"final_prior_weight"`
	FinalPredictedWeight float64 `json:"final_predicted_weight" yaml:"final_predicted_weight"`
	FinalPosteriorWeight float64 `json:"final_posterior_weight" yaml:"final_posterior_weight"`
	Threshold            float64 `json:"threshold" yaml:"threshold"`
}

// FinalWeightSum returns w_prior + w_predicted + w_posterior
func (w WeightConfiguration) FinalWeightSum() float64 {
	return floats.Sum([]float64{w.FinalPriorWeight, w.FinalPredictedWeight, w.FinalPosteriorWeight})
}

// Valid reports whether the final weights sum to 1 within WeightSumTolerance
func (w WeightConfiguration) Valid() bool {
	return math.Abs(w.FinalWeightSum()-1) <= WeightSumTolerance
}

// Validate returns ErrInvalidConfiguration when the weights are not usable
func (w WeightConfiguration) Validate() error {
	if w.DBNPriorWeight < 0 || w.DBNPriorWeight > 1 {
		return fmt.Errorf("%w: dbn prior weight %v outside [0,1]", ErrInvalidConfiguration, w.DBNPriorWeight)
	}
	if !w.Valid() {
		return fmt.Errorf("%w: final weights sum to %v", ErrInvalidConfiguration, w.FinalWeightSum())
	}
	return nil
}

func (w WeightConfiguration) String() string {
	return fmt.Sprintf("dbn_prior=%.2f prior=%.2f predicted=%.2f posterior=%.2f threshold=%.2f",
		w.DBNPriorWeight, w.FinalPriorWeight, w.FinalPredictedWeight, w.FinalPosteriorWeight, w.Threshold)
}
