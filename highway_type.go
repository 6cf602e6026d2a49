package trafficsim

type HighwayType uint16

const (
	HIGHWAY_MOTORWAY = HighwayType(iota + 1)
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_TRUNK
	HIGHWAY_TRUNK_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_UNCLASSIFIED
	HIGHWAY_RESIDENTIAL
	HIGHWAY_LIVING_STREET
	HIGHWAY_SERVICE
	HIGHWAY_UNDEFINED = HighwayType(0)
)

func (iotaIdx HighwayType) String() string {
	return [...]string{"undefined", "motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "unclassified", "residential", "living_street", "service"}[iotaIdx]
}

func getHighwayType(str string) HighwayType {
	if found, ok := highwaysTypes[str]; ok {
		return found
	}
	return HIGHWAY_UNDEFINED
}

// defaultSpeed returns speed limit in m/s for the way without 'maxspeed' tag
func (iotaIdx HighwayType) defaultSpeed() float64 {
	if speed, ok := defaultSpeedByHighwayType[iotaIdx]; ok {
		return speed * kmhToMs
	}
	return defaultSpeedByHighwayType[HIGHWAY_UNCLASSIFIED] * kmhToMs
}

// rank returns importance of the road: the bigger the more important
func (iotaIdx HighwayType) rank() int {
	if iotaIdx == HIGHWAY_UNDEFINED {
		return 0
	}
	return int(HIGHWAY_SERVICE) - int(iotaIdx) + 1
}

var (
	highwaysTypes = map[string]HighwayType{
		"motorway":       HIGHWAY_MOTORWAY,
		"motorway_link":  HIGHWAY_MOTORWAY_LINK,
		"trunk":          HIGHWAY_TRUNK,
		"trunk_link":     HIGHWAY_TRUNK_LINK,
		"primary":        HIGHWAY_PRIMARY,
		"primary_link":   HIGHWAY_PRIMARY_LINK,
		"secondary":      HIGHWAY_SECONDARY,
		"secondary_link": HIGHWAY_SECONDARY_LINK,
		"tertiary":       HIGHWAY_TERTIARY,
		"tertiary_link":  HIGHWAY_TERTIARY_LINK,
		"unclassified":   HIGHWAY_UNCLASSIFIED,
		"residential":    HIGHWAY_RESIDENTIAL,
		"living_street":  HIGHWAY_LIVING_STREET,
		"service":        HIGHWAY_SERVICE,
	}
	// km/h
	defaultSpeedByHighwayType = map[HighwayType]float64{
		HIGHWAY_MOTORWAY:       120,
		HIGHWAY_MOTORWAY_LINK:  120,
		HIGHWAY_TRUNK:          100,
		HIGHWAY_TRUNK_LINK:     100,
		HIGHWAY_PRIMARY:        80,
		HIGHWAY_PRIMARY_LINK:   80,
		HIGHWAY_SECONDARY:      60,
		HIGHWAY_SECONDARY_LINK: 60,
		HIGHWAY_TERTIARY:       40,
		HIGHWAY_TERTIARY_LINK:  40,
		HIGHWAY_UNCLASSIFIED:   30,
		HIGHWAY_RESIDENTIAL:    30,
		HIGHWAY_LIVING_STREET:  20,
		HIGHWAY_SERVICE:        30,
	}
)
