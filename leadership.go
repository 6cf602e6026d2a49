package trafficsim

import (
	"fmt"

	"github.com/samber/lo"
)

// changeLeader is the only place where leader/follower relation is mutated
func (sim *Simulation) changeLeader(veh *Vehicle, leaderID VehicleID) {
	if leaderID == veh.ID {
		leaderID = NoVehicle
	}
	sim.leaveLeader(veh)
	veh.leader = leaderID
	if leader := sim.vehicle(leaderID); leader != nil {
		leader.followers = append(leader.followers, veh.ID)
	} else {
		veh.leader = NoVehicle
	}
}

// leaveLeader detaches vehicle from the followers of its current leader
func (sim *Simulation) leaveLeader(veh *Vehicle) {
	leader := sim.vehicle(veh.leader)
	if leader == nil {
		veh.leader = NoVehicle
		return
	}
	idx := lo.IndexOf(leader.followers, veh.ID)
	if idx < 0 {
		panic(fmt.Sprintf("leaveLeader(): %s is not a follower of %s", veh, leader))
	}
	leader.followers = append(leader.followers[:idx], leader.followers[idx+1:]...)
	veh.leader = NoVehicle
}

// findLeader makes the last vehicle entered the next road the leader
func (sim *Simulation) findLeader(veh *Vehicle) {
	if veh.nextRoad == NoRoad {
		return
	}
	sim.changeLeader(veh, sim.roads[veh.nextRoad].lastVehicle(veh.destinationCross))
}

// holdAtStop makes vehicle to follow the stop vehicle of its road
func (sim *Simulation) holdAtStop(veh *Vehicle) {
	sim.changeLeader(veh, sim.roads[veh.road].stop)
}

// destroy removes vehicle from the live set and rebinds its followers
func (sim *Simulation) destroy(veh *Vehicle) {
	if veh.destroyed {
		return
	}
	veh.destroyed = true
	sim.leaveLeader(veh)
	followers := make([]VehicleID, len(veh.followers))
	copy(followers, veh.followers)
	for _, followerID := range followers {
		follower := sim.vehicle(followerID)
		if follower == nil {
			continue
		}
		sim.changeLeader(follower, NoVehicle)
		sim.findLeader(follower)
	}
	sim.deleted = append(sim.deleted, veh.ID)
	sim.live = lo.Without(sim.live, veh.ID)
	sim.stats.recordExit(sim, veh)
	sim.logger.WithFields(sim.fields()).WithField("vehicle", veh.ID).Debug("Vehicle left the network")
}
