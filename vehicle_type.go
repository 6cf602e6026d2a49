package trafficsim

type VehicleType uint16

const (
	VEHICLE_CAR = VehicleType(iota + 1)
	VEHICLE_TRUCK
	VEHICLE_UNDEFINED = VehicleType(0)
)

func (iotaIdx VehicleType) String() string {
	return [...]string{"undefined", "car", "truck"}[iotaIdx]
}

func getVehicleType(str string) VehicleType {
	if found, ok := vehicleTypes[str]; ok {
		return found
	}
	return VEHICLE_UNDEFINED
}

const (
	defaultTimeHeadway = 1.0
	defaultMinGap      = 2.0
	defaultComfortDec  = 1.5
	defaultDelta       = 4.0

	// Share of cars among generated vehicles
	carShare = 0.9
)

var (
	vehicleTypes = map[string]VehicleType{
		"car":   VEHICLE_CAR,
		"truck": VEHICLE_TRUCK,
	}
	defaultLengthByVehicleType = map[VehicleType]float64{
		VEHICLE_CAR:   4,
		VEHICLE_TRUCK: 10,
	}
	defaultWidthByVehicleType = map[VehicleType]float64{
		VEHICLE_CAR:   2,
		VEHICLE_TRUCK: 2.5,
	}
	defaultMaxDecByVehicleType = map[VehicleType]float64{
		VEHICLE_CAR:   10,
		VEHICLE_TRUCK: 5,
	}
	defaultAccByVehicleType = map[VehicleType]float64{
		VEHICLE_CAR:   2,
		VEHICLE_TRUCK: 1,
	}
	// Seconds a non-priority (or left turning) vehicle needs ahead of conflicting traffic
	defaultPriorityGapByVehicleType = map[VehicleType]float64{
		VEHICLE_CAR:   2,
		VEHICLE_TRUCK: 3,
	}
)
