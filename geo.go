package trafficsim

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

func pointToEuclidean(pt orb.Point) orb.Point {
	euclideanX, euclideanY := epsg4326To3857(pt.Lon(), pt.Lat())
	return orb.Point{euclideanX, euclideanY}
}

// angleOfSegment returns direction of the segment from a to b in range (-Pi; Pi]
func angleOfSegment(a, b orb.Point) float64 {
	return math.Atan2(b.Y()-a.Y(), b.X()-a.X())
}

// normalizeAngle brings angle to range (-Pi; Pi]
func normalizeAngle(angle float64) float64 {
	for angle <= -1*math.Pi {
		angle += 2 * math.Pi
	}
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	return angle
}

// placeOnRoad returns point being at distance x from the start point along heading
// and shifted to the right side of the road by given offset
func placeOnRoad(start orb.Point, heading, x, offset float64) orb.Point {
	sin, cos := math.Sincos(heading)
	return orb.Point{
		start.X() + x*cos + offset*sin,
		start.Y() + x*sin - offset*cos,
	}
}
