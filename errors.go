package trafficsim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Contract violations. Those are returned by the call which introduces them and must be checked via errors.Cause
var (
	ErrBadCoordinates   = errors.New("coordinates must be finite numbers")
	ErrBadSpeedLimit    = errors.New("speed limit must be positive finite number")
	ErrBadPeriod        = errors.New("generation period must be positive finite number")
	ErrTooManyRoads     = errors.New("cross can't hold more than 4 roads")
	ErrGeneratorRoads   = errors.New("generator must be connected to exactly one road")
	ErrDeadEnd          = errors.New("intersection must be connected to at least two roads")
	ErrSameCross        = errors.New("road must connect two different crosses")
	ErrUnknownCross     = errors.New("no such cross")
	ErrUnknownRoad      = errors.New("no such road")
	ErrNotGenerator     = errors.New("cross is not a generator")
	ErrWrongAxis        = errors.New("priority axis must be two different roads connected to the cross")
	ErrNoPriorityAxis   = errors.New("cross with 3 or 4 roads needs priority axis")
	ErrBadDispatch      = errors.New("dispatch must be square matrix matching cross roads")
	ErrDispatchDiagonal = errors.New("vehicles can't turn back at a cross: dispatch[i][i] must be 0")
	ErrDispatchSum      = errors.New("dispatch frequencies sum must equal 1")
	ErrNoDispatch       = errors.New("cross with 3 or 4 roads needs dispatch matrix")
	ErrNotPrepared      = errors.New("simulation has not been prepared")
	ErrAlreadyPrepared  = errors.New("topology can't be changed after simulation has been prepared")
	ErrBadTimeStep      = errors.New("time step must be positive finite number")
)

// Runtime violations. Those are wrapped into StateError
var (
	ErrRoadNotLinked      = errors.New("road is not linked to the cross")
	ErrCrossNotOnRoad     = errors.New("cross is not an endpoint of the road")
	ErrVehicleNotOnRoad   = errors.New("vehicle is not on this road")
	ErrPositionBeyondRoad = errors.New("incoming position exceeds road length")
)

// StateError is a broken invariant of the queues or leadership bookkeeping met during simulation step
type StateError struct {
	Op      string
	Road    RoadID
	Length  float64
	Vehicle VehicleState
	Leader  *VehicleState
	Err     error
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("%s: %s. Road ID: %d (length %f). Vehicle: %s", e.Op, e.Err, e.Road, e.Length, e.Vehicle)
	if e.Leader != nil {
		msg += fmt.Sprintf(". Leader: %s", *e.Leader)
	}
	return msg
}

// Cause makes errors.Cause return underlying runtime violation
func (e *StateError) Cause() error {
	return e.Err
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// stateError collects diagnostic context for the vehicle
func (sim *Simulation) stateError(op string, road *Road, veh *Vehicle, err error) *StateError {
	serr := &StateError{
		Op:      op,
		Road:    road.ID,
		Length:  road.length,
		Vehicle: sim.vehicleState(veh),
		Err:     err,
	}
	if leader := sim.vehicle(veh.leader); leader != nil {
		leaderState := sim.vehicleState(leader)
		serr.Leader = &leaderState
	}
	return serr
}
