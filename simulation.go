package trafficsim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Simulation owns every cross, road and vehicle. Entities refer to each other by identifiers only
type Simulation struct {
	crosses  []*Cross
	roads    []*Road
	vehicles map[VehicleID]*Vehicle
	// Vehicles on the roads in order of appearance (stop vehicles are not there)
	live []VehicleID
	// Vehicles destroyed during current step
	deleted []VehicleID

	priorityGap map[VehicleType]float64
	rng         *rand.Rand
	logger      *logrus.Logger
	stats       statistics
	components  [][]CrossID

	runID   uuid.UUID
	seed    int64
	model   CarFollowingModel
	randGap float64
	verbose bool

	t        float64
	dt       float64
	nextID   VehicleID
	prepared bool
	failure  error
}

func (sim *Simulation) String() string {
	return fmt.Sprintf(`
Simulation parameters:
	run_id: '%s'
	seed: %d
	model: '%s'
	rand_gap: %f
	priority_gap: %v
	crosses: %d
	roads: %d
	prepared?: %t
	`,
		sim.runID,
		sim.seed,
		sim.model,
		sim.randGap,
		sim.priorityGap,
		len(sim.crosses),
		len(sim.roads),
		sim.prepared,
	)
}

// NewSimulation creates empty network. Topology is added via AddCross, AddGenerator and AddRoad and is frozen by Prepare
func NewSimulation(options ...func(*Simulation)) *Simulation {
	sim := &Simulation{
		crosses:     make([]*Cross, 0),
		roads:       make([]*Road, 0),
		vehicles:    make(map[VehicleID]*Vehicle),
		live:        make([]VehicleID, 0),
		deleted:     make([]VehicleID, 0),
		priorityGap: make(map[VehicleType]float64),
		runID:       uuid.New(),
		seed:        time.Now().UnixNano(),
		model:       MODEL_IIDM,
		randGap:     defaultRandGap,
		nextID:      0,
	}
	for _, option := range options {
		option(sim)
	}
	if sim.logger == nil {
		sim.logger = logrus.New()
		sim.logger.SetLevel(logrus.WarnLevel)
		if sim.verbose {
			sim.logger.SetLevel(logrus.InfoLevel)
		}
	}
	sim.rng = rand.New(rand.NewSource(sim.seed))
	return sim
}

func (sim *Simulation) fields() logrus.Fields {
	return logrus.Fields{
		"run_id": sim.runID.String(),
		"t":      sim.t,
	}
}

// progress writes message about long running preparation stages when verbose mode is on
func (sim *Simulation) progress(format string, args ...interface{}) {
	if !sim.verbose {
		return
	}
	sim.logger.WithFields(sim.fields()).Infof(format, args...)
}

func (sim *Simulation) nextVehicleID() VehicleID {
	id := sim.nextID
	sim.nextID++
	return id
}

// vehicle resolves identifier. Returns nil for unknown or destroyed vehicles
func (sim *Simulation) vehicle(id VehicleID) *Vehicle {
	if id == NoVehicle {
		return nil
	}
	veh, ok := sim.vehicles[id]
	if !ok || veh.destroyed {
		return nil
	}
	return veh
}

func (sim *Simulation) cross(id CrossID) (*Cross, error) {
	if id < 0 || int(id) >= len(sim.crosses) {
		return nil, errors.Wrapf(ErrUnknownCross, "cross %d", id)
	}
	return sim.crosses[id], nil
}

func (sim *Simulation) road(id RoadID) (*Road, error) {
	if id < 0 || int(id) >= len(sim.roads) {
		return nil, errors.Wrapf(ErrUnknownRoad, "road %d", id)
	}
	return sim.roads[id], nil
}

func isFinite(values ...float64) bool {
	for _, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return false
		}
	}
	return true
}

// AddCross creates intersection at given planar coordinates
func (sim *Simulation) AddCross(x, y float64) (CrossID, error) {
	if sim.prepared {
		return NoCross, ErrAlreadyPrepared
	}
	if !isFinite(x, y) {
		return NoCross, errors.Wrapf(ErrBadCoordinates, "(%f; %f)", x, y)
	}
	cross := newCross(CrossID(len(sim.crosses)), orb.Point{x, y})
	sim.crosses = append(sim.crosses, cross)
	return cross.ID, nil
}

// AddGenerator creates boundary cross which injects vehicles every period seconds (with jitter) and absorbs arriving ones
func (sim *Simulation) AddGenerator(x, y, period float64) (CrossID, error) {
	if sim.prepared {
		return NoCross, ErrAlreadyPrepared
	}
	if !isFinite(x, y) {
		return NoCross, errors.Wrapf(ErrBadCoordinates, "(%f; %f)", x, y)
	}
	if !isFinite(period) || period <= 0 {
		return NoCross, errors.Wrapf(ErrBadPeriod, "%f", period)
	}
	cross := newGenerator(CrossID(len(sim.crosses)), orb.Point{x, y}, period, sim.randGap)
	sim.crosses = append(sim.crosses, cross)
	return cross.ID, nil
}

// SetGeneratorRandGap overrides bounds of generation period jitter for single generator
func (sim *Simulation) SetGeneratorRandGap(crossID CrossID, randGap float64) error {
	cross, err := sim.cross(crossID)
	if err != nil {
		return err
	}
	if cross.crossType != CROSS_GENERATOR {
		return errors.Wrapf(ErrNotGenerator, "cross %d", crossID)
	}
	if !isFinite(randGap) || randGap < 0 {
		return errors.Wrapf(ErrBadPeriod, "random gap %f", randGap)
	}
	cross.randGap = randGap
	return nil
}

// AddRoad connects two crosses. Each road carries traffic in both directions
func (sim *Simulation) AddRoad(cross1, cross2 CrossID, speedLimit float64) (RoadID, error) {
	if sim.prepared {
		return NoRoad, ErrAlreadyPrepared
	}
	c1, err := sim.cross(cross1)
	if err != nil {
		return NoRoad, err
	}
	c2, err := sim.cross(cross2)
	if err != nil {
		return NoRoad, err
	}
	if cross1 == cross2 {
		return NoRoad, errors.Wrapf(ErrSameCross, "cross %d", cross1)
	}
	if c1.geom.Equal(c2.geom) {
		return NoRoad, errors.Wrapf(ErrBadCoordinates, "crosses %d and %d share position %v", cross1, cross2, c1.geom)
	}
	if !isFinite(speedLimit) || speedLimit <= 0 {
		return NoRoad, errors.Wrapf(ErrBadSpeedLimit, "%f", speedLimit)
	}
	for _, cross := range []*Cross{c1, c2} {
		if cross.crossType == CROSS_GENERATOR && len(cross.roads) > 0 {
			return NoRoad, errors.Wrapf(ErrGeneratorRoads, "cross %d", cross.ID)
		}
		if len(cross.roads) >= maxRoadsPerCross {
			return NoRoad, errors.Wrapf(ErrTooManyRoads, "cross %d", cross.ID)
		}
	}

	road := newRoad(RoadID(len(sim.roads)), c1, c2, speedLimit)
	stop := newStopVehicle(sim.nextVehicleID(), road)
	sim.vehicles[stop.ID] = stop
	road.stop = stop.ID
	sim.roads = append(sim.roads, road)
	c1.roads = append(c1.roads, road.ID)
	c2.roads = append(c2.roads, road.ID)
	return road.ID, nil
}

// SetPriorityAxis defines pair of roads having right of way at the cross
func (sim *Simulation) SetPriorityAxis(crossID CrossID, road1, road2 RoadID) error {
	if sim.prepared {
		return ErrAlreadyPrepared
	}
	cross, err := sim.cross(crossID)
	if err != nil {
		return err
	}
	if _, err := sim.road(road1); err != nil {
		return err
	}
	if _, err := sim.road(road2); err != nil {
		return err
	}
	if cross.crossType != CROSS_INTERSECTION || road1 == road2 || cross.roadIndex(road1) < 0 || cross.roadIndex(road2) < 0 {
		return errors.Wrapf(ErrWrongAxis, "cross %d, roads %d and %d", crossID, road1, road2)
	}
	cross.priorityAxis = [2]RoadID{road1, road2}
	return nil
}

// SetDispatch defines turning probabilities at the cross: matrix[i][j] is the probability to leave
// via roads[j] when arriving from roads[i]. Every connected road must be listed
func (sim *Simulation) SetDispatch(crossID CrossID, roads []RoadID, matrix [][]float64) error {
	if sim.prepared {
		return ErrAlreadyPrepared
	}
	cross, err := sim.cross(crossID)
	if err != nil {
		return err
	}
	if cross.crossType != CROSS_INTERSECTION {
		return errors.Wrapf(ErrBadDispatch, "cross %d is %s", crossID, cross.crossType)
	}
	if err := validateDispatch(cross, roads, matrix); err != nil {
		return err
	}
	cross.probabilities = make(map[RoadID]map[RoadID]float64, len(roads))
	for i, from := range roads {
		cross.probabilities[from] = make(map[RoadID]float64, len(roads))
		for j, to := range roads {
			cross.probabilities[from][to] = matrix[i][j]
		}
	}
	return nil
}

// Prepare sorts the roads of every cross, builds cumulative dispatch matrices and validates the topology.
// Topology can't be changed after that
func (sim *Simulation) Prepare() error {
	if sim.prepared {
		return ErrAlreadyPrepared
	}
	sim.progress("Preparing crosses...")
	st := time.Now()
	for _, cross := range sim.crosses {
		switch cross.crossType {
		case CROSS_GENERATOR:
			if len(cross.roads) != 1 {
				return errors.Wrapf(ErrGeneratorRoads, "cross %d has %d roads", cross.ID, len(cross.roads))
			}
		case CROSS_INTERSECTION:
			if len(cross.roads) < 2 {
				return errors.Wrapf(ErrDeadEnd, "cross %d has %d roads", cross.ID, len(cross.roads))
			}
			if len(cross.roads) > 2 && !cross.hasPriorityAxis() {
				return errors.Wrapf(ErrNoPriorityAxis, "cross %d", cross.ID)
			}
			if err := sim.sortRoads(cross); err != nil {
				return err
			}
			if len(cross.roads) > 2 {
				if err := cross.buildDispatch(); err != nil {
					return err
				}
			}
		default:
			return errors.Wrapf(ErrUnknownCross, "cross %d has type %s", cross.ID, cross.crossType)
		}
	}
	sim.progress("Done in %v. Crosses: %d, roads: %d", time.Since(st), len(sim.crosses), len(sim.roads))

	sim.progress("Checking connectivity...")
	st = time.Now()
	sim.components = connectedCrosses(sim)
	if len(sim.components) > 1 {
		sim.logger.WithFields(sim.fields()).WithField("components", len(sim.components)).Warn("Road network is not connected")
	}
	sim.progress("Done in %v. Components: %d", time.Since(st), len(sim.components))

	sim.prepared = true
	return nil
}

// Time returns current simulation time
func (sim *Simulation) Time() float64 {
	return sim.t
}

// Advance moves the simulation forward by dt seconds.
// Broken invariant aborts the step and every later call returns the same *StateError
func (sim *Simulation) Advance(dt float64) error {
	if sim.failure != nil {
		return sim.failure
	}
	if !sim.prepared {
		return ErrNotPrepared
	}
	if !isFinite(dt) || dt <= 0 {
		return errors.Wrapf(ErrBadTimeStep, "%f", dt)
	}
	sim.dt = dt
	if err := sim.step(dt); err != nil {
		sim.failure = err
		sim.logger.WithFields(sim.fields()).WithError(err).Error("Simulation step aborted")
		return err
	}
	sim.t += dt
	return nil
}

// Run advances the simulation by dt until given duration is elapsed
func (sim *Simulation) Run(dt, duration float64) error {
	if !isFinite(duration) || duration < 0 {
		return errors.Wrapf(ErrBadTimeStep, "duration %f", duration)
	}
	sim.progress("Running simulation for %f seconds...", duration)
	st := time.Now()
	end := sim.t + duration
	for sim.t+dt/2 < end {
		if err := sim.Advance(dt); err != nil {
			return err
		}
	}
	sim.progress("Done in %v. Vehicles generated: %d, exited: %d, live: %d", time.Since(st), sim.stats.generated, sim.stats.exited, len(sim.live))
	return nil
}

func (sim *Simulation) step(dt float64) error {
	for _, cross := range sim.crosses {
		switch cross.crossType {
		case CROSS_GENERATOR:
			if _, err := sim.generate(cross, sim.t); err != nil {
				return err
			}
		}
	}

	// Every acceleration is evaluated on the state of the beginning of the step
	accelerations := make([]float64, len(sim.live))
	for i, id := range sim.live {
		accelerations[i] = sim.vehicles[id].acceleration(sim)
	}
	for i, id := range sim.live {
		sim.vehicles[id].integrate(accelerations[i], dt)
	}
	sim.keepQueueOrder()

	for _, cross := range sim.crosses {
		switch cross.crossType {
		case CROSS_INTERSECTION:
			sim.getIntentions(cross)
		}
	}
	for _, road := range sim.roads {
		if err := sim.outgoingVeh(road, road.firstVehicle(road.cross1)); err != nil {
			return err
		}
		if err := sim.outgoingVeh(road, road.firstVehicle(road.cross2)); err != nil {
			return err
		}
	}

	for _, id := range sim.deleted {
		delete(sim.vehicles, id)
	}
	sim.deleted = sim.deleted[:0]
	return nil
}

// integrate updates speed and position with given acceleration. Vehicles never move backwards
func (veh *Vehicle) integrate(acc, dt float64) {
	veh.lastA = acc
	dx := veh.v*dt + math.Max(0, 0.5*acc*dt*dt)
	veh.x += dx
	veh.travelled += dx
	veh.v = math.Max(0, veh.v+acc*dt)
}

// keepQueueOrder prevents vehicle from passing through its queue predecessor
func (sim *Simulation) keepQueueOrder() {
	for _, road := range sim.roads {
		for _, queue := range [][]VehicleID{road.queue12, road.queue21} {
			for k := 1; k < len(queue); k++ {
				ahead, veh := sim.vehicles[queue[k-1]], sim.vehicles[queue[k]]
				if veh.x > ahead.x {
					veh.travelled -= veh.x - ahead.x
					veh.x = ahead.x
					veh.v = math.Min(veh.v, ahead.v)
				}
			}
		}
	}
}
