package trafficsim

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestTurnDirection(t *testing.T) {
	cases := []struct {
		i, j, n   int
		direction TurnDirection
	}{
		{0, 1, 4, DIRECTION_RIGHT},
		{0, 3, 4, DIRECTION_LEFT},
		{0, 2, 4, DIRECTION_NONE},
		{3, 0, 4, DIRECTION_RIGHT},
		{1, 0, 4, DIRECTION_LEFT},
		{0, 1, 3, DIRECTION_RIGHT},
		{0, 2, 3, DIRECTION_LEFT},
		{2, 0, 3, DIRECTION_RIGHT},
	}
	for _, c := range cases {
		direction := turnDirection(c.i, c.j, c.n)
		if direction != c.direction {
			t.Errorf("Direction %d -> %d of %d roads must be %s, but got %s", c.i, c.j, c.n, c.direction, direction)
		}
	}
}

func TestSortRoads(t *testing.T) {
	sim, c, roads := buildCrossroad(t, 1e6)
	cross := sim.crosses[c]
	correct := []RoadID{roads["east"], roads["north"], roads["west"], roads["south"]}
	for i := range correct {
		if cross.roads[i] != correct[i] {
			t.Errorf("Road #%d must be %d, but got %d", i, correct[i], cross.roads[i])
		}
	}

	// No rotation needed when priority axis is on indices 0 and 2 already
	sim, c, roads = crossroadTopology(t, 1e6)
	err := sim.SetPriorityAxis(c, roads["south"], roads["north"])
	if err != nil {
		t.Fatal(err)
	}
	err = sim.SetDispatch(c, []RoadID{roads["east"], roads["north"], roads["west"], roads["south"]}, UniformDispatch(4))
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	cross = sim.crosses[c]
	correct = []RoadID{roads["south"], roads["east"], roads["north"], roads["west"]}
	for i := range correct {
		if cross.roads[i] != correct[i] {
			t.Errorf("Road #%d must be %d, but got %d", i, correct[i], cross.roads[i])
		}
	}
}

func TestDirectionOf(t *testing.T) {
	sim, c, roads := buildCrossroad(t, 1e6)
	cross := sim.crosses[c]
	cases := []struct {
		from, to  string
		direction TurnDirection
	}{
		{"east", "west", DIRECTION_NONE},
		{"east", "south", DIRECTION_LEFT},
		{"east", "north", DIRECTION_RIGHT},
		{"north", "west", DIRECTION_RIGHT},
		{"north", "east", DIRECTION_LEFT},
		{"north", "south", DIRECTION_NONE},
		{"south", "east", DIRECTION_RIGHT},
	}
	for _, c := range cases {
		direction := cross.directionOf(roads[c.from], roads[c.to])
		if direction != c.direction {
			t.Errorf("Direction %s -> %s must be %s, but got %s", c.from, c.to, c.direction, direction)
		}
	}
	if direction := cross.directionOf(roads["east"], NoRoad); direction != DIRECTION_NONE {
		t.Errorf("Direction without next road must be %s, but got %s", DIRECTION_NONE, direction)
	}
}

func TestWrongAxis(t *testing.T) {
	sim, c, roads := crossroadTopology(t, 1e6)
	err := sim.SetPriorityAxis(c, roads["east"], roads["north"])
	if err != nil {
		t.Fatal(err)
	}
	err = sim.SetDispatch(c, []RoadID{roads["east"], roads["north"], roads["west"], roads["south"]}, UniformDispatch(4))
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Prepare()
	if errors.Cause(err) != ErrWrongAxis {
		t.Errorf("Error must be %v, but got %v", ErrWrongAxis, err)
	}

	sim, c, roads = crossroadTopology(t, 1e6)
	err = sim.SetPriorityAxis(c, roads["east"], roads["east"])
	if errors.Cause(err) != ErrWrongAxis {
		t.Errorf("Error must be %v, but got %v", ErrWrongAxis, err)
	}
	err = sim.SetDispatch(c, []RoadID{roads["east"], roads["north"], roads["west"], roads["south"]}, UniformDispatch(4))
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Prepare()
	if errors.Cause(err) != ErrNoPriorityAxis {
		t.Errorf("Error must be %v, but got %v", ErrNoPriorityAxis, err)
	}

	sim, c, roads = crossroadTopology(t, 1e6)
	err = sim.SetPriorityAxis(c, roads["east"], roads["west"])
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Prepare()
	if errors.Cause(err) != ErrNoDispatch {
		t.Errorf("Error must be %v, but got %v", ErrNoDispatch, err)
	}
}

func TestDispatchValidation(t *testing.T) {
	sim, c, roads := crossroadTopology(t, 1e6)
	ids := []RoadID{roads["east"], roads["north"], roads["west"], roads["south"]}

	diagonal := UniformDispatch(4)
	diagonal[1] = []float64{0.25, 0.25, 0.25, 0.25}
	err := sim.SetDispatch(c, ids, diagonal)
	if errors.Cause(err) != ErrDispatchDiagonal {
		t.Errorf("Error must be %v, but got %v", ErrDispatchDiagonal, err)
	}

	sum := UniformDispatch(4)
	sum[2] = []float64{0.5, 0.5, 0, 0.5}
	err = sim.SetDispatch(c, ids, sum)
	if errors.Cause(err) != ErrDispatchSum {
		t.Errorf("Error must be %v, but got %v", ErrDispatchSum, err)
	}

	err = sim.SetDispatch(c, ids[:3], UniformDispatch(3))
	if errors.Cause(err) != ErrBadDispatch {
		t.Errorf("Error must be %v, but got %v", ErrBadDispatch, err)
	}

	negative := UniformDispatch(4)
	negative[0] = []float64{0, 1.5, -0.5, 0}
	err = sim.SetDispatch(c, ids, negative)
	if errors.Cause(err) != ErrBadDispatch {
		t.Errorf("Error must be %v, but got %v", ErrBadDispatch, err)
	}

	generator := sim.roads[roads["east"]].otherEnd(c)
	err = sim.SetDispatch(generator, []RoadID{roads["east"]}, [][]float64{{0}})
	if errors.Cause(err) != ErrBadDispatch {
		t.Errorf("Error must be %v, but got %v", ErrBadDispatch, err)
	}

	// Tiny deviations of the sum are tolerated
	tolerated := UniformDispatch(4)
	tolerated[3] = []float64{0.3333333, 0.3333333, 0.3333333, 0}
	err = sim.SetDispatch(c, ids, tolerated)
	if err != nil {
		t.Errorf("Sum deviation below %e must be tolerated, but got %v", dispatchTolerance, err)
	}
}

func TestCumulativeDispatch(t *testing.T) {
	sim, c, _ := buildCrossroad(t, 1e6)
	cross := sim.crosses[c]
	third := 1.0 / 3.0
	correct := [][]float64{
		{0, third, 2 * third, 1},
		{third, third, 2 * third, 1},
		{third, 2 * third, 2 * third, 1},
		{third, 2 * third, 1, 1},
	}
	for i := range correct {
		for j := range correct[i] {
			if math.Abs(cross.dispatch[i][j]-correct[i][j]) > eps {
				t.Errorf("Dispatch [%d][%d] must be %f, but got %f", i, j, correct[i][j], cross.dispatch[i][j])
			}
		}
		if cross.dispatch[i][len(correct)-1] != 1 {
			t.Errorf("Last cumulative frequency must be exactly 1, but got %f", cross.dispatch[i][len(correct)-1])
		}
	}
}

func TestChooseDirection(t *testing.T) {
	sim, c, roads := crossroadTopology(t, 1e6, WithSeed(3))
	err := sim.SetPriorityAxis(c, roads["east"], roads["west"])
	if err != nil {
		t.Fatal(err)
	}
	// Order of roads differs from the sorted one
	ids := []RoadID{roads["south"], roads["west"], roads["north"], roads["east"]}
	matrix := [][]float64{
		{0, 0.5, 0.5, 0},
		{0, 0, 0, 1},
		{0.5, 0.5, 0, 0},
		{0, 0, 1, 0},
	}
	err = sim.SetDispatch(c, ids, matrix)
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	cross := sim.crosses[c]

	for i := 0; i < 100; i++ {
		if next := sim.chooseDirection(cross, roads["east"]); next != roads["north"] {
			t.Fatalf("Next road after east must be %d, but got %d", roads["north"], next)
		}
		if next := sim.chooseDirection(cross, roads["west"]); next != roads["east"] {
			t.Fatalf("Next road after west must be %d, but got %d", roads["east"], next)
		}
	}
	counts := make(map[RoadID]int)
	for i := 0; i < 1000; i++ {
		counts[sim.chooseDirection(cross, roads["north"])]++
	}
	if counts[roads["north"]] != 0 || counts[roads["east"]] != 0 {
		t.Errorf("Vehicles from north must go either south or west, but got %v", counts)
	}
	if counts[roads["south"]] == 0 || counts[roads["west"]] == 0 {
		t.Errorf("Both south and west must be chosen, but got %v", counts)
	}

	generator := sim.crosses[sim.roads[roads["east"]].otherEnd(c)]
	if next := sim.chooseDirection(generator, roads["east"]); next != NoRoad {
		t.Errorf("Next road at generator must be %d, but got %d", NoRoad, next)
	}
}

func TestTopologyErrors(t *testing.T) {
	sim := NewSimulation()
	_, err := sim.AddCross(math.NaN(), 0)
	if errors.Cause(err) != ErrBadCoordinates {
		t.Errorf("Error must be %v, but got %v", ErrBadCoordinates, err)
	}
	_, err = sim.AddGenerator(0, 0, 0)
	if errors.Cause(err) != ErrBadPeriod {
		t.Errorf("Error must be %v, but got %v", ErrBadPeriod, err)
	}

	c, _ := sim.AddCross(0, 0)
	g, _ := sim.AddGenerator(10, 0, 5)
	_, err = sim.AddRoad(c, c, 10)
	if errors.Cause(err) != ErrSameCross {
		t.Errorf("Error must be %v, but got %v", ErrSameCross, err)
	}
	_, err = sim.AddRoad(c, g, -1)
	if errors.Cause(err) != ErrBadSpeedLimit {
		t.Errorf("Error must be %v, but got %v", ErrBadSpeedLimit, err)
	}
	_, err = sim.AddRoad(c, CrossID(100), 10)
	if errors.Cause(err) != ErrUnknownCross {
		t.Errorf("Error must be %v, but got %v", ErrUnknownCross, err)
	}
	_, err = sim.AddRoad(c, g, 10)
	if err != nil {
		t.Fatal(err)
	}
	other, _ := sim.AddCross(0, 10)
	_, err = sim.AddRoad(other, g, 10)
	if errors.Cause(err) != ErrGeneratorRoads {
		t.Errorf("Error must be %v, but got %v", ErrGeneratorRoads, err)
	}
	err = sim.SetGeneratorRandGap(c, 1)
	if errors.Cause(err) != ErrNotGenerator {
		t.Errorf("Error must be %v, but got %v", ErrNotGenerator, err)
	}

	// Intersection with the only road
	err = sim.Prepare()
	if errors.Cause(err) != ErrDeadEnd {
		t.Errorf("Error must be %v, but got %v", ErrDeadEnd, err)
	}

	sim, c, _ = crossroadTopology(t, 1e6)
	g, _ = sim.AddGenerator(50, 50, 5)
	_, err = sim.AddRoad(c, g, 10)
	if errors.Cause(err) != ErrTooManyRoads {
		t.Errorf("Error must be %v, but got %v", ErrTooManyRoads, err)
	}
}

func TestDisconnectedNetwork(t *testing.T) {
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
	components := sim.Components()
	if len(components) != 2 {
		t.Fatalf("Number of components must be %d, but got %d", 2, len(components))
	}
	if components[0][0] != 0 || components[0][1] != 1 || components[1][0] != 2 || components[1][1] != 3 {
		t.Errorf("Components must be [[0 1] [2 3]], but got %v", components)
	}
}
