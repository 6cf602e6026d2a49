package trafficsim

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

type RoadID int

const (
	NoRoad = RoadID(-1)
)

const (
	defaultRoadWidth = 6.0
	// Distance between the stop vehicle and the end of the road
	stopIndent = 1.0
)

// Road is a segment between two crosses. Vehicles travel it both ways, one queue per direction
type Road struct {
	geom       orb.LineString
	queue12    []VehicleID
	queue21    []VehicleID
	ID         RoadID
	cross1     CrossID
	cross2     CrossID
	stop       VehicleID
	speedLimit float64
	width      float64
	length     float64
	angle      float64
}

func newRoad(id RoadID, cross1, cross2 *Cross, speedLimit float64) *Road {
	road := Road{
		geom:       orb.LineString{cross1.geom, cross2.geom},
		queue12:    make([]VehicleID, 0),
		queue21:    make([]VehicleID, 0),
		ID:         id,
		cross1:     cross1.ID,
		cross2:     cross2.ID,
		stop:       NoVehicle,
		speedLimit: speedLimit,
		width:      defaultRoadWidth,
		length:     planar.Distance(cross1.geom, cross2.geom),
		angle:      angleOfSegment(cross1.geom, cross2.geom),
	}
	return &road
}

// otherEnd returns opposite endpoint of the road
func (road *Road) otherEnd(crossID CrossID) CrossID {
	if crossID == road.cross1 {
		return road.cross2
	}
	return road.cross1
}

// angleFrom returns direction of the road leaving given cross
func (road *Road) angleFrom(crossID CrossID) float64 {
	if crossID == road.cross1 {
		return road.angle
	}
	return normalizeAngle(road.angle + math.Pi)
}

// queueTo returns queue of vehicles heading to given cross
func (road *Road) queueTo(destination CrossID) *[]VehicleID {
	if destination == road.cross2 {
		return &road.queue12
	}
	return &road.queue21
}

// firstVehicle returns the first vehicle arriving on destination cross from this road
func (road *Road) firstVehicle(destination CrossID) VehicleID {
	if destination != road.cross1 && destination != road.cross2 {
		return NoVehicle
	}
	queue := *road.queueTo(destination)
	if len(queue) == 0 {
		return NoVehicle
	}
	return queue[0]
}

// lastVehicle returns the last vehicle arrived on the road from origin cross
func (road *Road) lastVehicle(origin CrossID) VehicleID {
	if origin != road.cross1 && origin != road.cross2 {
		return NoVehicle
	}
	queue := *road.queueTo(road.otherEnd(origin))
	if len(queue) == 0 {
		return NoVehicle
	}
	return queue[len(queue)-1]
}

// incomingVeh puts vehicle at the beginning of the road coming from origin cross.
// x is position on the road when arriving (vehicles coming from another road keep their overshoot)
func (sim *Simulation) incomingVeh(road *Road, veh *Vehicle, origin CrossID, x float64) error {
	if origin != road.cross1 && origin != road.cross2 {
		return sim.stateError("incomingVeh()", road, veh, errors.Wrapf(ErrCrossNotOnRoad, "cross %d", origin))
	}
	if x > road.length {
		return sim.stateError("incomingVeh()", road, veh, errors.Wrapf(ErrPositionBeyondRoad, "received position %f", x))
	}

	veh.decision = false
	tailID := road.lastVehicle(origin)
	sim.changeLeader(veh, tailID)
	// Vehicles can't overtake the queue predecessor
	if tail := sim.vehicle(tailID); tail != nil && tail.x < x {
		x = tail.x
	}

	destination := road.otherEnd(origin)
	queue := road.queueTo(destination)
	*queue = append(*queue, veh.ID)

	veh.destinationCross = destination
	veh.x = x
	veh.lastRoad = veh.road
	veh.road = road.ID
	veh.originCross = origin
	veh.v0 = road.speedLimit

	// Choose the next road
	cross := sim.crosses[destination]
	veh.nextRoad = sim.chooseDirection(cross, road.ID)
	veh.direction = cross.directionOf(road.ID, veh.nextRoad)

	for _, followerID := range veh.followers {
		if follower := sim.vehicle(followerID); follower != nil {
			follower.decision = false
		}
	}
	return nil
}

// outgoingVeh moves the first vehicle of the queue to the next road when it has reached the end of the road
func (sim *Simulation) outgoingVeh(road *Road, vehID VehicleID) error {
	veh := sim.vehicle(vehID)
	if veh == nil {
		return nil
	}

	// Vehicles turning right leave the road earlier
	length := road.length
	add := 0.0
	if veh.direction == DIRECTION_RIGHT {
		length = road.length - veh.length/2
		add = veh.length
	}
	if veh.x < length {
		return nil
	}

	destination := veh.destinationCross
	if veh.road != road.ID || (destination != road.cross1 && destination != road.cross2) {
		return sim.stateError("outgoingVeh()", road, veh, ErrVehicleNotOnRoad)
	}
	queue := road.queueTo(destination)
	if len(*queue) == 0 || (*queue)[0] != veh.ID {
		return sim.stateError("outgoingVeh()", road, veh, ErrVehicleNotOnRoad)
	}
	*queue = (*queue)[1:]

	cross := sim.crosses[destination]
	switch cross.crossType {
	case CROSS_GENERATOR:
		sim.destroy(veh)
		if next := sim.vehicle(road.firstVehicle(destination)); next != nil {
			sim.changeLeader(next, NoVehicle)
		}
		return nil
	default:
		return sim.transferVehicle(cross, veh, veh.nextRoad, veh.x-road.length+add)
	}
}
