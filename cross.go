package trafficsim

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type CrossID int

const (
	NoCross = CrossID(-1)
)

const (
	// Bounds of generation period jitter, seconds
	defaultRandGap = 5.0
	// Allowed deviation of dispatch row sum from 1
	dispatchTolerance = 1e-6
	// Maximum number of roads at single cross
	maxRoadsPerCross = 4
)

// Cross is a topology node: either intersection or boundary generator
type Cross struct {
	geom  orb.Point
	roads []RoadID

	// Probabilities of turning from road to road as they were given
	probabilities map[RoadID]map[RoadID]float64
	// Cumulative frequencies in sorted order of roads
	dispatch [][]float64

	ID           CrossID
	crossType    CrossType
	priorityAxis [2]RoadID
	sorted       bool

	// Generator state
	period      float64
	randGap     float64
	nextPeriod  float64
	lastT       float64
	jitterDrawn bool
}

func newCross(id CrossID, pt orb.Point) *Cross {
	cross := Cross{
		geom:         pt,
		roads:        make([]RoadID, 0, maxRoadsPerCross),
		ID:           id,
		crossType:    CROSS_INTERSECTION,
		priorityAxis: [2]RoadID{NoRoad, NoRoad},
	}
	return &cross
}

func newGenerator(id CrossID, pt orb.Point, period, randGap float64) *Cross {
	cross := newCross(id, pt)
	cross.crossType = CROSS_GENERATOR
	cross.period = period
	cross.randGap = randGap
	cross.nextPeriod = period
	return cross
}

// roadIndex returns position of the road in the cross roads list or -1
func (cross *Cross) roadIndex(roadID RoadID) int {
	return lo.IndexOf(cross.roads, roadID)
}

func (cross *Cross) hasPriorityAxis() bool {
	return cross.priorityAxis[0] != NoRoad && cross.priorityAxis[1] != NoRoad
}

func (cross *Cross) onPriorityAxis(roadID RoadID) bool {
	return roadID != NoRoad && (cross.priorityAxis[0] == roadID || cross.priorityAxis[1] == roadID)
}

// directionOf returns turn direction of the movement from road to next road through the cross
func (cross *Cross) directionOf(from, to RoadID) TurnDirection {
	if to == NoRoad || len(cross.roads) == 2 {
		return DIRECTION_NONE
	}
	if cross.onPriorityAxis(from) && cross.onPriorityAxis(to) {
		return DIRECTION_NONE
	}
	i, j := cross.roadIndex(from), cross.roadIndex(to)
	if i < 0 || j < 0 {
		return DIRECTION_NONE
	}
	return turnDirection(i, j, len(cross.roads))
}

// sortRoads orders roads counterclockwise by the angle they leave the cross with.
// For 3 and 4-road crosses roads are rotated then so priority axis lays on indices 0 and 2
func (sim *Simulation) sortRoads(cross *Cross) error {
	angles := make(map[RoadID]float64, len(cross.roads))
	for _, roadID := range cross.roads {
		angles[roadID] = sim.roads[roadID].angleFrom(cross.ID)
	}
	sort.SliceStable(cross.roads, func(i, j int) bool {
		return angles[cross.roads[i]] < angles[cross.roads[j]]
	})
	if len(cross.roads) > 2 {
		rotations := 0
		for !(cross.onPriorityAxis(cross.roads[0]) && cross.onPriorityAxis(cross.roads[2])) {
			if rotations == len(cross.roads) {
				return errors.Wrapf(ErrWrongAxis, "cross %d: roads %d and %d are not opposite to each other", cross.ID, cross.priorityAxis[0], cross.priorityAxis[1])
			}
			cross.roads = append(cross.roads[1:], cross.roads[0])
			rotations++
		}
	}
	cross.sorted = true
	return nil
}

// validateDispatch checks square stochastic matrix with zero diagonal given for listed roads
func validateDispatch(cross *Cross, roads []RoadID, matrix [][]float64) error {
	if len(roads) != len(cross.roads) || len(matrix) != len(roads) {
		return errors.Wrapf(ErrBadDispatch, "cross %d has %d roads, got %d roads and %d rows", cross.ID, len(cross.roads), len(roads), len(matrix))
	}
	if len(lo.Uniq(roads)) != len(roads) {
		return errors.Wrapf(ErrBadDispatch, "cross %d: duplicated roads %v", cross.ID, roads)
	}
	for _, roadID := range roads {
		if cross.roadIndex(roadID) < 0 {
			return errors.Wrapf(ErrBadDispatch, "cross %d: road %d is not connected", cross.ID, roadID)
		}
	}
	for i, row := range matrix {
		if len(row) != len(roads) {
			return errors.Wrapf(ErrBadDispatch, "cross %d: row %d has %d columns, expected %d", cross.ID, i, len(row), len(roads))
		}
		if row[i] != 0 {
			return errors.Wrapf(ErrDispatchDiagonal, "cross %d: dispatch[%d][%d] = %f", cross.ID, i, i, row[i])
		}
		sum := 0.0
		for j, p := range row {
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return errors.Wrapf(ErrBadDispatch, "cross %d: dispatch[%d][%d] = %f", cross.ID, i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > dispatchTolerance {
			return errors.Wrapf(ErrDispatchSum, "cross %d: row %d sums to %f", cross.ID, i, sum)
		}
	}
	return nil
}

// buildDispatch converts probabilities to cumulative frequencies in the current order of roads
func (cross *Cross) buildDispatch() error {
	if len(cross.probabilities) == 0 {
		return errors.Wrapf(ErrNoDispatch, "cross %d", cross.ID)
	}
	n := len(cross.roads)
	cross.dispatch = make([][]float64, n)
	for i, from := range cross.roads {
		row, ok := cross.probabilities[from]
		if !ok || len(row) != n {
			return errors.Wrapf(ErrBadDispatch, "cross %d: no probabilities for road %d among %d roads", cross.ID, from, n)
		}
		cross.dispatch[i] = make([]float64, n)
		cumulative := 0.0
		for j, to := range cross.roads {
			p, ok := row[to]
			if !ok {
				return errors.Wrapf(ErrBadDispatch, "cross %d: no probability for turn %d -> %d", cross.ID, from, to)
			}
			cumulative += p
			cross.dispatch[i][j] = cumulative
		}
		if math.Abs(cumulative-1) > dispatchTolerance {
			return errors.Wrapf(ErrDispatchSum, "cross %d: row of road %d sums to %f", cross.ID, from, cumulative)
		}
		cross.dispatch[i][n-1] = 1
	}
	return nil
}

// chooseDirection picks the next road for a vehicle arriving to the cross via origin road
func (sim *Simulation) chooseDirection(cross *Cross, origin RoadID) RoadID {
	switch cross.crossType {
	case CROSS_GENERATOR:
		return NoRoad
	}
	if len(cross.roads) == 2 {
		if cross.roads[0] == origin {
			return cross.roads[1]
		}
		return cross.roads[0]
	}
	i := cross.roadIndex(origin)
	if i < 0 || len(cross.dispatch) != len(cross.roads) {
		return NoRoad
	}
	// Uniform draw in (0; 1]
	draw := 1 - sim.rng.Float64()
	for j, cumulative := range cross.dispatch[i] {
		if j != i && draw <= cumulative {
			return cross.roads[j]
		}
	}
	if i == len(cross.roads)-1 {
		return cross.roads[i-1]
	}
	return cross.roads[len(cross.roads)-1]
}

// transferVehicle puts vehicle on the next road at position x
func (sim *Simulation) transferVehicle(cross *Cross, veh *Vehicle, next RoadID, x float64) error {
	if next == NoRoad || cross.roadIndex(next) < 0 {
		road := sim.roads[veh.road]
		return sim.stateError("transferVehicle()", road, veh, errors.Wrapf(ErrRoadNotLinked, "road %d, cross %d", next, cross.ID))
	}
	return sim.incomingVeh(sim.roads[next], veh, cross.ID, x)
}
