package trafficsim

// CrossType is the kind of topology node
type CrossType uint16

const (
	CROSS_INTERSECTION = CrossType(iota + 1)
	CROSS_GENERATOR
	CROSS_UNDEFINED = CrossType(0)
)

func (iotaIdx CrossType) String() string {
	return [...]string{"undefined", "intersection", "generator"}[iotaIdx]
}

func getCrossType(str string) CrossType {
	switch str {
	case "intersection", "cross":
		return CROSS_INTERSECTION
	case "generator":
		return CROSS_GENERATOR
	default:
		return CROSS_UNDEFINED
	}
}
