package trafficsim

// TurnDirection is the movement of a vehicle relative to the cross it is approaching
type TurnDirection uint16

const (
	DIRECTION_LEFT = TurnDirection(iota + 1)
	DIRECTION_RIGHT

	// Straight ahead, or not determined (2-road crosses, generators, priority axis)
	DIRECTION_NONE = TurnDirection(0)
)

func (iotaIdx TurnDirection) String() string {
	return [...]string{"none", "left", "right"}[iotaIdx]
}

// turnDirection returns direction of the movement from road at index i to road at index j
// for cross having n roads sorted counterclockwise by incident angle.
// Heading rotates clockwise when vehicle takes the next road counterclockwise, so it is right turn
func turnDirection(i, j, n int) TurnDirection {
	switch j {
	case mod(i+1, n):
		return DIRECTION_RIGHT
	case mod(i-1, n):
		return DIRECTION_LEFT
	default:
		return DIRECTION_NONE
	}
}

// mod is modulo operation with non-negative result
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
