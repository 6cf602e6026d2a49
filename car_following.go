package trafficsim

import (
	"math"

	"github.com/samber/lo"
)

// CarFollowingModel is acceleration law shared by every vehicle of simulation
type CarFollowingModel uint16

const (
	MODEL_IDM = CarFollowingModel(iota + 1)
	MODEL_IIDM
	MODEL_UNDEFINED = CarFollowingModel(0)
)

func (iotaIdx CarFollowingModel) String() string {
	return [...]string{"undefined", "idm", "iidm"}[iotaIdx]
}

func getCarFollowingModel(str string) CarFollowingModel {
	switch str {
	case "idm", "IDM":
		return MODEL_IDM
	case "iidm", "IIDM":
		return MODEL_IIDM
	default:
		return MODEL_UNDEFINED
	}
}

// desiredGap returns s* = s0 + max(0, v*T + v*dv/(2*sqrt(a*b)))
func (veh *Vehicle) desiredGap(leaderV float64) float64 {
	v := veh.v
	dv := v - leaderV
	return veh.s0 + math.Max(0, v*veh.T+v*dv/(2*math.Sqrt(veh.a*veh.b)))
}

// accelerationIDM https://en.wikipedia.org/wiki/Intelligent_driver_model
func (veh *Vehicle) accelerationIDM(leaderV, spacing float64) float64 {
	sStar := veh.desiredGap(leaderV)
	acc := veh.a * (1 - math.Pow(veh.v/veh.v0, veh.delta) - math.Pow(sStar/spacing, 2))
	return lo.Clamp(acc, -veh.bMax, veh.a)
}

// freeAcceleration returns acceleration on empty road
func (veh *Vehicle) freeAcceleration() float64 {
	v := veh.v
	if v < veh.v0 {
		return veh.a * (1 - math.Pow(v/veh.v0, veh.delta))
	}
	if v == 0 {
		return 0
	}
	return -veh.b * (1 - math.Pow(veh.v0/v, veh.a*veh.delta/veh.b))
}

// accelerationIIDM is improved IDM by Treiber & Kesting
func (veh *Vehicle) accelerationIIDM(leaderV, spacing float64) float64 {
	v := veh.v
	z := veh.desiredGap(leaderV) / spacing
	aFree := veh.freeAcceleration()
	var acc float64
	if v < veh.v0 {
		if z >= 1 || aFree <= 0 {
			acc = veh.a * (1 - z*z)
		} else {
			acc = aFree * (1 - math.Pow(z, 2*veh.a/aFree))
		}
	} else {
		if z >= 1 {
			acc = aFree + veh.a*(1-z*z)
		} else {
			acc = aFree
		}
	}
	return math.Max(-veh.bMax, acc)
}
