package trafficsim

import (
	"regexp"
	"strconv"

	"github.com/paulmach/osm"
)

// Way is filtered OSM way
type Way struct {
	ID       osm.WayID
	Nodes    []osm.NodeID
	highway  HighwayType
	maxSpeed float64
}

// segment is part of the way between two crosses
type segment struct {
	wayID      osm.WayID
	source     osm.NodeID
	target     osm.NodeID
	highway    HighwayType
	speedLimit float64
}

var (
	mphRegExp    = regexp.MustCompile(`(\d+\.?\d*)\s*mph`)
	numberRegExp = regexp.MustCompile(`\d+\.?\d*`)
)

const (
	kmhToMs = 1000.0 / 3600.0
	mphToMs = 1609.344 / 3600.0
)

// parseMaxSpeed returns value of 'maxspeed' tag in m/s or -1 if the tag can't be parsed
func parseMaxSpeed(maxSpeed string) float64 {
	if maxSpeed == "" {
		return -1
	}
	if match := mphRegExp.FindStringSubmatch(maxSpeed); len(match) == 2 {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil || value <= 0 {
			return -1
		}
		return value * mphToMs
	}
	// km/h is default unit
	number := numberRegExp.FindString(maxSpeed)
	if number == "" {
		return -1
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value <= 0 {
		return -1
	}
	return value * kmhToMs
}

// speedLimit returns speed limit of the way in m/s
func (way *Way) speedLimit() float64 {
	if way.maxSpeed > 0 {
		return way.maxSpeed
	}
	return way.highway.defaultSpeed()
}
