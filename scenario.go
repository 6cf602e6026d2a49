package trafficsim

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is the description of the road network and simulation parameters.
// Identifiers are chosen by the author of the scenario and are used for references only:
// crosses and roads get simulation identifiers in the order they are listed
type Scenario struct {
	Seed        *int64             `yaml:"seed,omitempty"`
	Model       string             `yaml:"model,omitempty"`
	RandGap     *float64           `yaml:"rand_gap,omitempty"`
	PriorityGap map[string]float64 `yaml:"priority_gap,omitempty"`
	Crosses     []ScenarioCross    `yaml:"crosses"`
	Roads       []ScenarioRoad     `yaml:"roads"`
}

type ScenarioCross struct {
	ID           int64             `yaml:"id"`
	Type         string            `yaml:"type,omitempty"`
	X            float64           `yaml:"x"`
	Y            float64           `yaml:"y"`
	Period       float64           `yaml:"period,omitempty"`
	RandGap      *float64          `yaml:"rand_gap,omitempty"`
	PriorityAxis []int64           `yaml:"priority_axis,omitempty"`
	Dispatch     *ScenarioDispatch `yaml:"dispatch,omitempty"`
}

// ScenarioDispatch is square matrix of turning probabilities: Matrix[i][j] is the probability to take Roads[j] after Roads[i]
type ScenarioDispatch struct {
	Roads  []int64     `yaml:"roads"`
	Matrix [][]float64 `yaml:"matrix"`
}

type ScenarioRoad struct {
	ID         int64   `yaml:"id"`
	From       int64   `yaml:"from"`
	To         int64   `yaml:"to"`
	SpeedLimit float64 `yaml:"speed_limit"`
}

// LoadScenario reads YAML scenario file
func LoadScenario(fileName string) (*Scenario, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read scenario file")
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML scenario
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{}
	err := yaml.Unmarshal(data, &scenario)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse scenario")
	}
	return &scenario, nil
}

// Save writes scenario to YAML file
func (scenario *Scenario) Save(fileName string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return errors.Wrap(err, "Can't encode scenario")
	}
	err = os.WriteFile(fileName, data, 0644)
	if err != nil {
		return errors.Wrap(err, "Can't write scenario file")
	}
	return nil
}

// options turns scenario parameters into simulation options. Those go before the ones given by caller
func (scenario *Scenario) options() ([]func(*Simulation), error) {
	options := []func(*Simulation){}
	if scenario.Seed != nil {
		options = append(options, WithSeed(*scenario.Seed))
	}
	if scenario.Model != "" {
		model := getCarFollowingModel(scenario.Model)
		if model == MODEL_UNDEFINED {
			return nil, fmt.Errorf("Unknown car-following model '%s'", scenario.Model)
		}
		options = append(options, WithModel(model))
	}
	if scenario.RandGap != nil {
		options = append(options, WithRandGap(*scenario.RandGap))
	}
	for name, gap := range scenario.PriorityGap {
		vehicleType := getVehicleType(name)
		if vehicleType == VEHICLE_UNDEFINED {
			return nil, fmt.Errorf("Unknown vehicle type '%s' in priority gaps", name)
		}
		options = append(options, WithPriorityGap(vehicleType, gap))
	}
	return options, nil
}

// Build creates prepared simulation for the scenario
func (scenario *Scenario) Build(options ...func(*Simulation)) (*Simulation, error) {
	scenarioOptions, err := scenario.options()
	if err != nil {
		return nil, err
	}
	sim := NewSimulation(append(scenarioOptions, options...)...)

	crosses := make(map[int64]CrossID, len(scenario.Crosses))
	for _, sc := range scenario.Crosses {
		if _, ok := crosses[sc.ID]; ok {
			return nil, fmt.Errorf("Duplicated cross %d", sc.ID)
		}
		var id CrossID
		switch getCrossType(sc.Type) {
		case CROSS_GENERATOR:
			id, err = sim.AddGenerator(sc.X, sc.Y, sc.Period)
			if err == nil && sc.RandGap != nil {
				err = sim.SetGeneratorRandGap(id, *sc.RandGap)
			}
		case CROSS_INTERSECTION:
			id, err = sim.AddCross(sc.X, sc.Y)
		default:
			if sc.Type != "" {
				return nil, fmt.Errorf("Unknown type '%s' of cross %d", sc.Type, sc.ID)
			}
			id, err = sim.AddCross(sc.X, sc.Y)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add cross %d", sc.ID)
		}
		crosses[sc.ID] = id
	}

	roads := make(map[int64]RoadID, len(scenario.Roads))
	for _, sr := range scenario.Roads {
		if _, ok := roads[sr.ID]; ok {
			return nil, fmt.Errorf("Duplicated road %d", sr.ID)
		}
		from, ok := crosses[sr.From]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownCross, "road %d refers to cross %d", sr.ID, sr.From)
		}
		to, ok := crosses[sr.To]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownCross, "road %d refers to cross %d", sr.ID, sr.To)
		}
		id, err := sim.AddRoad(from, to, sr.SpeedLimit)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add road %d", sr.ID)
		}
		roads[sr.ID] = id
	}

	roadIDs := func(ids []int64) ([]RoadID, error) {
		result := make([]RoadID, len(ids))
		for i, id := range ids {
			roadID, ok := roads[id]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownRoad, "road %d", id)
			}
			result[i] = roadID
		}
		return result, nil
	}
	for _, sc := range scenario.Crosses {
		id := crosses[sc.ID]
		if len(sc.PriorityAxis) > 0 {
			axis, err := roadIDs(sc.PriorityAxis)
			if err != nil {
				return nil, errors.Wrapf(err, "Priority axis of cross %d", sc.ID)
			}
			if len(axis) != 2 {
				return nil, errors.Wrapf(ErrWrongAxis, "cross %d: %d roads given", sc.ID, len(axis))
			}
			if err := sim.SetPriorityAxis(id, axis[0], axis[1]); err != nil {
				return nil, errors.Wrapf(err, "Priority axis of cross %d", sc.ID)
			}
		}
		if sc.Dispatch != nil {
			dispatchRoads, err := roadIDs(sc.Dispatch.Roads)
			if err != nil {
				return nil, errors.Wrapf(err, "Dispatch of cross %d", sc.ID)
			}
			if err := sim.SetDispatch(id, dispatchRoads, sc.Dispatch.Matrix); err != nil {
				return nil, errors.Wrapf(err, "Dispatch of cross %d", sc.ID)
			}
		}
	}

	if err := sim.Prepare(); err != nil {
		return nil, errors.Wrap(err, "Can't prepare simulation")
	}
	return sim, nil
}

// UniformDispatch returns dispatch matrix of n roads where every road except the incoming one is equally likely
func UniformDispatch(n int) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i != j && n > 1 {
				matrix[i][j] = 1 / float64(n-1)
			}
		}
	}
	return matrix
}
