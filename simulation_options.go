package trafficsim

import (
	"github.com/sirupsen/logrus"
)

// WithSeed fixes the seed of the random source shared by dispatch draws, tie breaks and generators
func WithSeed(seed int64) func(*Simulation) {
	return func(sim *Simulation) {
		sim.seed = seed
	}
}

// WithModel sets car-following law. Unknown models fall back to IIDM
func WithModel(model CarFollowingModel) func(*Simulation) {
	return func(sim *Simulation) {
		switch model {
		case MODEL_IDM, MODEL_IIDM:
			sim.model = model
		default:
			sim.model = MODEL_IIDM
		}
	}
}

func WithLogger(logger *logrus.Logger) func(*Simulation) {
	return func(sim *Simulation) {
		sim.logger = logger
	}
}

func WithVerbose(verbose bool) func(*Simulation) {
	return func(sim *Simulation) {
		sim.verbose = verbose
	}
}

// WithRandGap sets default bounds of generation period jitter for generators created afterwards
func WithRandGap(randGap float64) func(*Simulation) {
	return func(sim *Simulation) {
		if isFinite(randGap) && randGap >= 0 {
			sim.randGap = randGap
		}
	}
}

// WithPriorityGap overrides time gap [s] which vehicles of given type need ahead of conflicting traffic
func WithPriorityGap(vehicleType VehicleType, gap float64) func(*Simulation) {
	return func(sim *Simulation) {
		if isFinite(gap) && gap >= 0 {
			sim.priorityGap[vehicleType] = gap
		}
	}
}
