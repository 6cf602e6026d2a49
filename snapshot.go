package trafficsim

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// VehicleState is read-only view of a vehicle
type VehicleState struct {
	ID          VehicleID
	VehicleType VehicleType
	Road        RoadID
	NextRoad    RoadID
	Direction   TurnDirection
	Leader      VehicleID
	Virtual     bool
	Decision    bool
	X           float64
	V           float64
	A           float64
	Length      float64
	Width       float64
	// Planar position of the vehicle center and its heading (radians)
	Position orb.Point
	Heading  float64
}

func (state VehicleState) String() string {
	return fmt.Sprintf("vehicle %d (%s): road=%d next_road=%d direction=%s x=%f v=%f a=%f leader=%d decision=%t",
		state.ID, state.VehicleType, state.Road, state.NextRoad, state.Direction, state.X, state.V, state.A, state.Leader, state.Decision)
}

// RoadState is read-only view of a road
type RoadState struct {
	ID         RoadID
	Cross1     CrossID
	Cross2     CrossID
	SpeedLimit float64
	Length     float64
	Width      float64
	Geom       orb.LineString
	// Vehicles heading to Cross2 and to Cross1, the nearest to the cross first
	Queue12 []VehicleID
	Queue21 []VehicleID
}

// CrossState is read-only view of a cross
type CrossState struct {
	ID           CrossID
	CrossType    CrossType
	Geom         orb.Point
	Roads        []RoadID
	PriorityAxis [2]RoadID
}

func (sim *Simulation) vehicleState(veh *Vehicle) VehicleState {
	state := VehicleState{
		ID:          veh.ID,
		VehicleType: veh.vehicleType,
		Road:        veh.road,
		NextRoad:    veh.nextRoad,
		Direction:   veh.direction,
		Leader:      veh.leader,
		Virtual:     veh.virtual,
		Decision:    veh.decision,
		X:           veh.x,
		V:           veh.v,
		A:           veh.lastA,
		Length:      veh.length,
		Width:       veh.width,
	}
	if veh.road != NoRoad && int(veh.road) < len(sim.roads) {
		road := sim.roads[veh.road]
		origin := veh.originCross
		if origin != road.cross1 && origin != road.cross2 {
			origin = road.cross1
		}
		state.Heading = road.angleFrom(origin)
		start := sim.crosses[origin].geom
		state.Position = placeOnRoad(start, state.Heading, math.Min(veh.x, road.length), road.width/4)
	}
	return state
}

// Vehicles returns live vehicles in order of their appearance. Stop vehicles are not included
func (sim *Simulation) Vehicles() []VehicleState {
	return lo.Map(sim.live, func(id VehicleID, _ int) VehicleState {
		return sim.vehicleState(sim.vehicles[id])
	})
}

// Vehicle returns state of the live vehicle
func (sim *Simulation) Vehicle(id VehicleID) (VehicleState, bool) {
	veh := sim.vehicle(id)
	if veh == nil || veh.virtual {
		return VehicleState{}, false
	}
	return sim.vehicleState(veh), true
}

func (sim *Simulation) Roads() []RoadState {
	return lo.Map(sim.roads, func(road *Road, _ int) RoadState {
		return RoadState{
			ID:         road.ID,
			Cross1:     road.cross1,
			Cross2:     road.cross2,
			SpeedLimit: road.speedLimit,
			Length:     road.length,
			Width:      road.width,
			Geom:       road.geom.Clone(),
			Queue12:    append([]VehicleID{}, road.queue12...),
			Queue21:    append([]VehicleID{}, road.queue21...),
		}
	})
}

func (sim *Simulation) Crosses() []CrossState {
	return lo.Map(sim.crosses, func(cross *Cross, _ int) CrossState {
		return CrossState{
			ID:           cross.ID,
			CrossType:    cross.crossType,
			Geom:         cross.geom,
			Roads:        append([]RoadID{}, cross.roads...),
			PriorityAxis: cross.priorityAxis,
		}
	})
}
