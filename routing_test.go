package trafficsim

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestFreeFlowTime(t *testing.T) {
	sim, crosses, _ := buildCorridor(t, 1e6)
	router, err := NewRouter(sim)
	if err != nil {
		t.Fatal(err)
	}
	cost, path, err := router.FreeFlowTime(crosses[0], crosses[2])
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cost-15) > eps {
		t.Errorf("Free-flow time must be %f, but got %f", 15.0, cost)
	}
	if len(path) != 3 || path[0] != crosses[0] || path[1] != crosses[1] || path[2] != crosses[2] {
		t.Errorf("Path must be %v, but got %v", crosses, path)
	}

	cost, _, err = router.FreeFlowTime(crosses[2], crosses[0])
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cost-15) > eps {
		t.Errorf("Free-flow time backward must be %f, but got %f", 15.0, cost)
	}

	delay, err := router.Delay(Trip{From: crosses[0], To: crosses[2], StartTime: 10, EndTime: 30})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(delay-5) > eps {
		t.Errorf("Delay must be %f, but got %f", 5.0, delay)
	}
}

func TestNoRoute(t *testing.T) {
	sim := NewSimulation()
	for i := 0; i < 2; i++ {
		g1, _ := sim.AddGenerator(0, float64(100*i), 5)
		g2, _ := sim.AddGenerator(100, float64(100*i), 5)
		_, err := sim.AddRoad(g1, g2, 10)
		if err != nil {
			t.Fatal(err)
		}
	}
	err := sim.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	router, err := NewRouter(sim)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = router.FreeFlowTime(0, 3)
	if errors.Cause(err) != ErrNoRoute {
		t.Errorf("Error must be %v, but got %v", ErrNoRoute, err)
	}
}

func TestTripsDelay(t *testing.T) {
	sim, _, _ := buildCorridor(t, 3, WithSeed(9))
	err := sim.Run(0.1, 120)
	if err != nil {
		t.Fatal(err)
	}
	router, err := NewRouter(sim)
	if err != nil {
		t.Fatal(err)
	}
	trips := sim.Trips()
	if len(trips) == 0 {
		t.Fatalf("Trips must be completed")
	}
	for _, trip := range trips {
		delay, err := router.Delay(trip)
		if err != nil {
			t.Fatal(err)
		}
		// Vehicles are generated at speed limit, so they can't be faster than free flow
		if delay < -0.2 {
			t.Errorf("Trip %v can't be faster than free flow, but delay is %f", trip, delay)
		}
	}
}
