package trafficsim

import (
	"fmt"
	"math"
)

type VehicleID int

const (
	NoVehicle = VehicleID(-1)
)

const (
	// Spacing to the leader when there is no leader to interact with
	freeFlowSpacing = 250.0
	// Lowest spacing passed to the acceleration law
	minSpacing = 0.01
	// Speed below which vehicle is considered to be standing (time to cross is fixed then)
	standingSpeed = 0.1
	// Time to cross for standing vehicles
	standingTimeToCross = 1.5
)

// Vehicle is a single agent of the simulation. Leader and followers are resolved through the owning Simulation
type Vehicle struct {
	followers []VehicleID

	ID          VehicleID
	vehicleType VehicleType

	x     float64
	v     float64
	v0    float64
	lastA float64

	T     float64
	s0    float64
	a     float64
	b     float64
	bMax  float64
	delta float64

	length float64
	width  float64

	road             RoadID
	lastRoad         RoadID
	nextRoad         RoadID
	originCross      CrossID
	destinationCross CrossID
	spawnCross       CrossID
	direction        TurnDirection
	leader           VehicleID

	createdAt float64
	travelled float64
	decision  bool
	virtual   bool
	destroyed bool
}

func newVehicle(id VehicleID, vehicleType VehicleType, road *Road, originCross CrossID) *Vehicle {
	veh := Vehicle{
		followers:        make([]VehicleID, 0),
		ID:               id,
		vehicleType:      vehicleType,
		v0:               road.speedLimit,
		T:                defaultTimeHeadway,
		s0:               defaultMinGap,
		a:                defaultAccByVehicleType[vehicleType],
		b:                defaultComfortDec,
		bMax:             defaultMaxDecByVehicleType[vehicleType],
		delta:            defaultDelta,
		length:           defaultLengthByVehicleType[vehicleType],
		width:            defaultWidthByVehicleType[vehicleType],
		road:             road.ID,
		lastRoad:         NoRoad,
		nextRoad:         NoRoad,
		originCross:      originCross,
		destinationCross: NoCross,
		spawnCross:       originCross,
		direction:        DIRECTION_NONE,
		leader:           NoVehicle,
	}
	return &veh
}

// newStopVehicle creates virtual obstacle standing near the end of the road
func newStopVehicle(id VehicleID, road *Road) *Vehicle {
	veh := newVehicle(id, VEHICLE_CAR, road, road.cross1)
	veh.virtual = true
	veh.x = road.length - stopIndent
	veh.v = 0
	return veh
}

// dToCross returns remaining distance to the destination cross
func (veh *Vehicle) dToCross(sim *Simulation) float64 {
	return sim.roads[veh.road].length - veh.x
}

// timeToCross returns estimated time to reach the destination cross
func (veh *Vehicle) timeToCross(sim *Simulation) float64 {
	if veh.v > standingSpeed {
		return veh.dToCross(sim) / veh.v
	}
	return standingTimeToCross
}

// priorityGap returns time gap required by the vehicle to pass before conflicting traffic
func (veh *Vehicle) priorityGap(sim *Simulation) float64 {
	if gap, ok := sim.priorityGap[veh.vehicleType]; ok {
		return gap
	}
	return defaultPriorityGapByVehicleType[veh.vehicleType]
}

// brakingDistance returns distance needed to stop using maximum deceleration
func (veh *Vehicle) brakingDistance() float64 {
	return veh.v * veh.v / (2 * veh.bMax)
}

// spacingWithLeader returns net gap between the vehicle and its leader
func (veh *Vehicle) spacingWithLeader(sim *Simulation) float64 {
	leader := sim.vehicle(veh.leader)
	if leader == nil {
		return freeFlowSpacing
	}
	halfLengths := (leader.length + veh.length) / 2
	switch {
	case leader.road == veh.road:
		return math.Max(minSpacing, leader.x-veh.x-halfLengths)
	case veh.nextRoad != NoRoad && leader.road == veh.nextRoad:
		return math.Max(minSpacing, veh.dToCross(sim)+leader.x-halfLengths)
	case leader.destinationCross != NoCross && leader.destinationCross == veh.destinationCross:
		// Projection of the vehicle approaching the same cross from another road
		return math.Max(minSpacing, veh.dToCross(sim)-leader.dToCross(sim)-halfLengths)
	default:
		return freeFlowSpacing
	}
}

// speedOfLeader returns speed of the leader or own speed when there is no leader
func (veh *Vehicle) speedOfLeader(sim *Simulation) float64 {
	leader := sim.vehicle(veh.leader)
	if leader == nil {
		return veh.v
	}
	return leader.v
}

// acceleration evaluates car-following law for current state
func (veh *Vehicle) acceleration(sim *Simulation) float64 {
	leaderV := veh.speedOfLeader(sim)
	spacing := veh.spacingWithLeader(sim)
	switch sim.model {
	case MODEL_IDM:
		return veh.accelerationIDM(leaderV, spacing)
	default:
		return veh.accelerationIIDM(leaderV, spacing)
	}
}

func (veh *Vehicle) String() string {
	return fmt.Sprintf("vehicle %d (%s): road=%d next_road=%d x=%f v=%f a=%f v0=%f leader=%d decision=%t",
		veh.ID, veh.vehicleType, veh.road, veh.nextRoad, veh.x, veh.v, veh.lastA, veh.v0, veh.leader, veh.decision)
}
