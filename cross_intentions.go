package trafficsim

import (
	"github.com/samber/lo"
)

// Probability of the first side winning the coin flip between stopped conflicting vehicles
const coinFlipShare = 0.5

// getIntentions arbitrates the queue heads approaching the cross. Priority axis roads are on indices 0 and 2
func (sim *Simulation) getIntentions(cross *Cross) {
	if cross.crossType != CROSS_INTERSECTION || len(cross.roads) < 3 {
		return
	}

	// Relief of the vehicles which have got the clearance via the vehicle which has just left the cross
	sim.relieveCongestion(cross, sim.roads[cross.roads[0]].lastVehicle(cross.ID))
	sim.relieveCongestion(cross, sim.roads[cross.roads[2]].lastVehicle(cross.ID))

	prio1 := sim.vehicle(sim.roads[cross.roads[0]].firstVehicle(cross.ID))
	prio2 := sim.vehicle(sim.roads[cross.roads[2]].firstVehicle(cross.ID))
	sim.repairLeader(prio1)
	sim.repairLeader(prio2)
	if prio1 != nil && prio2 != nil {
		sim.priorityIntentions(cross, prio1, prio2)
		sim.priorityIntentions(cross, prio2, prio1)
		// Both stay in front of each other forever otherwise
		if prio1.v == 0 || prio2.v == 0 {
			if sim.rng.Float64() < coinFlipShare {
				sim.grant(prio1)
			} else {
				sim.grant(prio2)
			}
		}
	}

	incoming := make([]*Vehicle, 0, 2)
	if veh := sim.vehicle(sim.roads[cross.roads[1]].firstVehicle(cross.ID)); veh != nil {
		incoming = append(incoming, veh)
	}
	if len(cross.roads) == maxRoadsPerCross {
		if veh := sim.vehicle(sim.roads[cross.roads[3]].firstVehicle(cross.ID)); veh != nil {
			incoming = append(incoming, veh)
		}
	}
	for _, veh := range incoming {
		sim.repairLeader(veh)
		sim.nonPriorityIntentions(cross, veh)
	}
}

// relieveCongestion stops the first follower coming from another road when there are several of them
func (sim *Simulation) relieveCongestion(cross *Cross, lastID VehicleID) {
	last := sim.vehicle(lastID)
	if last == nil {
		return
	}
	waiting := lo.Filter(last.followers, func(followerID VehicleID, _ int) bool {
		follower := sim.vehicle(followerID)
		return follower != nil && follower.road != last.road && follower.road != last.lastRoad
	})
	if len(waiting) < 2 {
		return
	}
	follower := sim.vehicle(waiting[0])
	sim.holdAtStop(follower)
	follower.decision = false
}

// repairLeader re-points the vehicle to the actual tail of its next road
func (sim *Simulation) repairLeader(veh *Vehicle) {
	if veh == nil {
		return
	}
	leader := sim.vehicle(veh.leader)
	if leader == nil || veh.nextRoad == NoRoad || leader.road != veh.nextRoad {
		return
	}
	tail := sim.roads[veh.nextRoad].lastVehicle(veh.destinationCross)
	if leader.ID != tail {
		veh.decision = false
		sim.changeLeader(veh, tail)
	}
}

// grant gives the clearance to pass the cross
func (sim *Simulation) grant(veh *Vehicle) {
	sim.findLeader(veh)
	veh.decision = true
}

// priorityIntentions lets left turning priority vehicle pass in front of the opposite one if the gap is enough
func (sim *Simulation) priorityIntentions(cross *Cross, veh, opposite *Vehicle) {
	if veh.decision || veh.direction != DIRECTION_LEFT {
		return
	}
	if opposite.timeToCross(sim) < veh.timeToCross(sim)+veh.priorityGap(sim) {
		sim.holdAtStop(veh)
		return
	}
	veh.decision = true
	sim.changeLeader(veh, sim.roads[veh.nextRoad].lastVehicle(cross.ID))
	if opposite.nextRoad == veh.nextRoad {
		sim.changeLeader(opposite, veh.ID)
	}
}

// nonPriorityIntentions looks for the gap in conflicting traffic for the vehicle approaching from non-priority road
func (sim *Simulation) nonPriorityIntentions(cross *Cross, veh *Vehicle) {
	if veh.decision || veh.nextRoad == NoRoad {
		return
	}
	gap := veh.priorityGap(sim)
	// Far enough from the cross to stop anyway
	if veh.dToCross(sim) > veh.brakingDistance()+veh.v0*gap {
		return
	}

	n := len(cross.roads)
	i := cross.roadIndex(veh.road)
	j := cross.roadIndex(veh.nextRoad)
	if i < 0 || j < 0 {
		return
	}

	var other *Vehicle
	if k := mod(2*i-j, maxRoadsPerCross); k < n {
		other = sim.vehicle(sim.roads[cross.roads[k]].firstVehicle(cross.ID))
	}
	if other != nil {
		sim.mergeBefore(veh, other, gap)
	} else {
		sim.findLeader(veh)
	}

	anti := make([]*Vehicle, 0, 2)
	if antiPrio := sim.vehicle(sim.roads[cross.roads[j]].firstVehicle(cross.ID)); antiPrio != nil {
		anti = append(anti, antiPrio)
	}
	var antiNonPrio *Vehicle
	if n == maxRoadsPerCross {
		antiNonPrio = sim.vehicle(sim.roads[cross.roads[mod(i+2, n)]].firstVehicle(cross.ID))
		if antiNonPrio != nil {
			anti = append(anti, antiNonPrio)
		}
	}

	if veh.direction == DIRECTION_LEFT || veh.direction == DIRECTION_NONE {
		for _, ant := range anti {
			if ant.timeToCross(sim) < veh.timeToCross(sim)+gap {
				veh.decision = false
				sim.holdAtStop(veh)
				if other != nil && other.leader != sim.roads[other.road].stop {
					sim.changeLeader(other, sim.roads[veh.nextRoad].lastVehicle(veh.destinationCross))
				}
				break
			}
		}
	}

	if antiNonPrio != nil && antiNonPrio.v == 0 {
		if sim.rng.Float64() < coinFlipShare {
			sim.grant(veh)
		} else {
			sim.grant(antiNonPrio)
		}
	}
}

// mergeBefore lets vehicle pass in front of conflicting vehicle or insert right behind it
func (sim *Simulation) mergeBefore(veh, other *Vehicle, gap float64) {
	if other.timeToCross(sim) > veh.timeToCross(sim)+gap {
		veh.decision = true
		sim.changeLeader(veh, sim.roads[veh.nextRoad].lastVehicle(veh.destinationCross))
		if other.nextRoad == veh.nextRoad {
			sim.changeLeader(other, veh.ID)
		}
		return
	}
	if len(other.followers) == 0 && !lo.Contains(veh.followers, other.ID) {
		sim.holdAtStop(veh)
		return
	}
	followers := make([]VehicleID, len(other.followers))
	copy(followers, other.followers)
	for _, followerID := range followers {
		follower := sim.vehicle(followerID)
		// True follower on the same road
		if follower == nil || follower.road != other.road {
			continue
		}
		space := other.timeToCross(sim) - follower.timeToCross(sim)
		required := (sim.roads[follower.road].speedLimit-veh.v)/veh.a + gap
		if space < required {
			sim.holdAtStop(veh)
		} else if !lo.Contains(veh.followers, other.ID) {
			veh.decision = true
			sim.changeLeader(veh, other.ID)
			if follower.nextRoad == veh.nextRoad {
				sim.changeLeader(follower, veh.ID)
			}
		}
	}
}
