package trafficsim

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestEPSG4326To3857(t *testing.T) {
	x, y := epsg4326To3857(37.6417350769043, 55.751849391735284)
	correctX, correctY := 4190258.780753, 7509173.657690
	if Round(x, 0.001) != Round(correctX, 0.001) {
		t.Errorf("X must be %f, but got %f", correctX, x)
	}
	if Round(y, 0.001) != Round(correctY, 0.001) {
		t.Errorf("Y must be %f, but got %f", correctY, y)
	}
	pt := pointToEuclidean(orb.Point{0, 0})
	if Round(pt.X(), 0.001) != 0 || Round(pt.Y(), 0.001) != 0 {
		t.Errorf("Origin must be %v, but got %v", orb.Point{0, 0}, pt)
	}
}

func TestAngleOfSegment(t *testing.T) {
	cases := []struct {
		a, b  orb.Point
		angle float64
	}{
		{orb.Point{0, 0}, orb.Point{10, 0}, 0},
		{orb.Point{0, 0}, orb.Point{0, 10}, math.Pi / 2},
		{orb.Point{0, 0}, orb.Point{-10, 0}, math.Pi},
		{orb.Point{0, 0}, orb.Point{0, -10}, -math.Pi / 2},
	}
	for _, c := range cases {
		angle := angleOfSegment(c.a, c.b)
		if math.Abs(angle-c.angle) > eps {
			t.Errorf("Angle of %v -> %v must be %f, but got %f", c.a, c.b, c.angle, angle)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := [][2]float64{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
	}
	for _, c := range cases {
		angle := normalizeAngle(c[0])
		if math.Abs(angle-c[1]) > eps {
			t.Errorf("Normalized %f must be %f, but got %f", c[0], c[1], angle)
		}
	}
}

func TestPlaceOnRoad(t *testing.T) {
	// Heading east: right side is south
	pt := placeOnRoad(orb.Point{100, 50}, 0, 10, 1.5)
	if math.Abs(pt.X()-110) > eps || math.Abs(pt.Y()-48.5) > eps {
		t.Errorf("Point must be %v, but got %v", orb.Point{110, 48.5}, pt)
	}
	// Heading north: right side is east
	pt = placeOnRoad(orb.Point{0, 0}, math.Pi/2, 10, 1.5)
	if math.Abs(pt.X()-1.5) > eps || math.Abs(pt.Y()-10) > eps {
		t.Errorf("Point must be %v, but got %v", orb.Point{1.5, 10}, pt)
	}
}

func Round(x, unit float64) float64 {
	if x > 0 {
		return float64(int64(x/unit+0.5)) * unit
	}
	return float64(int64(x/unit-0.5)) * unit
}
