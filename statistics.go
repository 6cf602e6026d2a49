package trafficsim

import (
	"github.com/samber/lo"
)

// Trip is the journey of a vehicle from the generator it has been created by to the generator it has left the network via
type Trip struct {
	Vehicle     VehicleID
	VehicleType VehicleType
	From        CrossID
	To          CrossID
	StartTime   float64
	EndTime     float64
	Distance    float64
}

// Duration returns time spent on the network
func (trip Trip) Duration() float64 {
	return trip.EndTime - trip.StartTime
}

// Statistics is the summary of the current state of the simulation
type Statistics struct {
	Time         float64
	Live         int
	Generated    int
	Exited       int
	AverageSpeed float64
}

type statistics struct {
	generated int
	exited    int
	trips     []Trip
}

func (st *statistics) recordGeneration(veh *Vehicle) {
	st.generated++
}

func (st *statistics) recordExit(sim *Simulation, veh *Vehicle) {
	st.exited++
	st.trips = append(st.trips, Trip{
		Vehicle:     veh.ID,
		VehicleType: veh.vehicleType,
		From:        veh.spawnCross,
		To:          veh.destinationCross,
		StartTime:   veh.createdAt,
		EndTime:     sim.t + sim.dt,
		Distance:    veh.travelled,
	})
}

// Statistics returns counters of generated, exited and live vehicles and average speed of the live ones
func (sim *Simulation) Statistics() Statistics {
	stats := Statistics{
		Time:      sim.t,
		Live:      len(sim.live),
		Generated: sim.stats.generated,
		Exited:    sim.stats.exited,
	}
	if len(sim.live) > 0 {
		total := lo.SumBy(sim.live, func(id VehicleID) float64 {
			return sim.vehicles[id].v
		})
		stats.AverageSpeed = total / float64(len(sim.live))
	}
	return stats
}

// Trips returns completed trips in order of completion
func (sim *Simulation) Trips() []Trip {
	trips := make([]Trip, len(sim.stats.trips))
	copy(trips, sim.stats.trips)
	return trips
}
