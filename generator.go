package trafficsim

// generate injects new vehicle into the single road of the generator when the period is elapsed
func (sim *Simulation) generate(cross *Cross, t float64) (*Vehicle, error) {
	if cross.crossType != CROSS_GENERATOR || len(cross.roads) != 1 {
		return nil, nil
	}
	road := sim.roads[cross.roads[0]]
	ahead := sim.vehicle(road.lastVehicle(cross.ID))

	if !cross.jitterDrawn {
		jitter := (2*sim.rng.Float64() - 1) * cross.randGap
		cross.nextPeriod = cross.period + jitter
		cross.jitterDrawn = true
	}
	if t-cross.lastT < cross.nextPeriod {
		return nil, nil
	}

	vehicleType := VEHICLE_TRUCK
	if sim.rng.Float64() < carShare {
		vehicleType = VEHICLE_CAR
	}
	if ahead != nil {
		safe := road.speedLimit*road.speedLimit/(2*defaultMaxDecByVehicleType[vehicleType]) +
			ahead.s0 + (ahead.length+defaultLengthByVehicleType[vehicleType])/2
		if ahead.x <= safe {
			return nil, nil
		}
	}

	cross.lastT = t
	veh := newVehicle(sim.nextVehicleID(), vehicleType, road, cross.ID)
	veh.createdAt = t
	sim.vehicles[veh.ID] = veh
	sim.live = append(sim.live, veh.ID)
	sim.changeLeader(veh, road.lastVehicle(cross.ID))
	veh.v = road.speedLimit
	if err := sim.transferVehicle(cross, veh, road.ID, 0); err != nil {
		return nil, err
	}
	cross.jitterDrawn = false
	sim.stats.recordGeneration(veh)
	sim.logger.WithFields(sim.fields()).WithField("vehicle", veh.ID).WithField("generator", cross.ID).Debug("Vehicle generated")
	return veh, nil
}
