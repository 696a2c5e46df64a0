package search

import (
	"log/slog"

	"github.com/saaga0h/jeeves-occupancy/internal/estimator"
	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/internal/simulator"
	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// NewPolicyFactory returns a factory building light policies over shared,
// read-only parameters
func NewPolicyFactory(params *estimator.Params, layout *building.Layout, window building.Window, logger *slog.Logger) PolicyFactory {
	return func(w light.WeightConfiguration) simulator.Decider {
		return light.NewPolicy(params, layout, window, w, logger)
	}
}
