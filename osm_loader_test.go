package trafficsim

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="trafficsim">
  <node id="1" lat="55.75" lon="37.6" version="1" visible="true"/>
  <node id="2" lat="55.75" lon="37.602" version="1" visible="true"/>
  <node id="3" lat="55.75" lon="37.598" version="1" visible="true"/>
  <node id="4" lat="55.752" lon="37.6" version="1" visible="true"/>
  <node id="5" lat="55.748" lon="37.6" version="1" visible="true"/>
  <node id="6" lat="55.76" lon="37.61" version="1" visible="true"/>
  <node id="7" lat="55.761" lon="37.61" version="1" visible="true"/>
  <way id="10" version="1" visible="true">
    <nd ref="3"/>
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="primary"/>
    <tag k="maxspeed" v="50"/>
  </way>
  <way id="11" version="1" visible="true">
    <nd ref="4"/>
    <nd ref="1"/>
    <nd ref="5"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="12" version="1" visible="true">
    <nd ref="6"/>
    <nd ref="7"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>
`

func TestImportFromOSMFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "plus.osm")
	err := os.WriteFile(fileName, []byte(testOSM), 0644)
	if err != nil {
		t.Fatal(err)
	}
	scenario, err := ImportFromOSMFile(fileName, &OsmConfiguration{EntityName: "highway", GeneratorPeriod: 7})
	if err != nil {
		t.Fatal(err)
	}
	if len(scenario.Crosses) != 5 {
		t.Errorf("Number of crosses must be %d, but got %d", 5, len(scenario.Crosses))
	}
	if len(scenario.Roads) != 4 {
		t.Fatalf("Number of roads must be %d, but got %d", 4, len(scenario.Roads))
	}

	generators := 0
	var center *ScenarioCross
	for i := range scenario.Crosses {
		sc := &scenario.Crosses[i]
		switch sc.Type {
		case CROSS_GENERATOR.String():
			generators++
			if sc.Period != 7 {
				t.Errorf("Period of generator %d must be %f, but got %f", sc.ID, 7.0, sc.Period)
			}
		case CROSS_INTERSECTION.String():
			center = sc
		}
		if sc.X < 0 || sc.Y < 0 {
			t.Errorf("Coordinates must be shifted to the origin, but got (%f; %f)", sc.X, sc.Y)
		}
	}
	if generators != 4 {
		t.Errorf("Number of generators must be %d, but got %d", 4, generators)
	}
	if center == nil || center.ID != 1 {
		t.Fatalf("Node 1 must be intersection")
	}

	// Primary segments come first
	primary := map[int64]bool{}
	for _, road := range scenario.Roads {
		if road.From == 3 || road.To == 2 {
			primary[road.ID] = true
			if math.Abs(road.SpeedLimit-50*kmhToMs) > eps {
				t.Errorf("Speed limit of road %d must be %f, but got %f", road.ID, 50*kmhToMs, road.SpeedLimit)
			}
		} else if math.Abs(road.SpeedLimit-30*kmhToMs) > eps {
			t.Errorf("Speed limit of road %d must be %f, but got %f", road.ID, 30*kmhToMs, road.SpeedLimit)
		}
	}
	if len(center.PriorityAxis) != 2 || !primary[center.PriorityAxis[0]] || !primary[center.PriorityAxis[1]] {
		t.Errorf("Priority axis must be primary road, but got %v", center.PriorityAxis)
	}
	if center.Dispatch == nil || len(center.Dispatch.Roads) != 4 {
		t.Fatalf("Dispatch must be set for all roads of the cross")
	}

	// Distances are local meters: 0.002 degrees of longitude at 55.75 N
	for _, road := range scenario.Roads {
		if road.From != 3 {
			continue
		}
		var from, to ScenarioCross
		for _, sc := range scenario.Crosses {
			if sc.ID == road.From {
				from = sc
			}
			if sc.ID == road.To {
				to = sc
			}
		}
		length := math.Hypot(to.X-from.X, to.Y-from.Y)
		correct := 0.002 * math.Pi / 180 * 6378137 * math.Cos(55.75*math.Pi/180)
		if math.Abs(length-correct) > 1 {
			t.Errorf("Length of road %d must be about %f, but got %f", road.ID, correct, length)
		}
	}

	sim, err := scenario.Build(WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Run(0.2, 60)
	if err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, sim)
}

func TestImportErrors(t *testing.T) {
	_, err := ImportFromOSMFile(filepath.Join(t.TempDir(), "missing.osm"), nil)
	if err == nil {
		t.Errorf("Missing file must be reported")
	}
	fileName := filepath.Join(t.TempDir(), "plus.txt")
	err = os.WriteFile(fileName, []byte(testOSM), 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ImportFromOSMFile(fileName, nil)
	if err == nil {
		t.Errorf("Unknown file extension must be reported")
	}
}

func TestBuildScenarioDropsSegments(t *testing.T) {
	nodes := map[osm.NodeID]*Node{
		1: {ID: 1, geom: orb.Point{37.6, 55.75}},
		2: {ID: 2, geom: orb.Point{37.602, 55.75}},
		3: {ID: 3, geom: orb.Point{37.601, 55.752}},
		4: {ID: 4, geom: orb.Point{37.598, 55.751}},
		5: {ID: 5, geom: orb.Point{37.599, 55.748}},
		6: {ID: 6, geom: orb.Point{37.601, 55.748}},
	}
	highways := []HighwayType{HIGHWAY_SERVICE, HIGHWAY_PRIMARY, HIGHWAY_SECONDARY, HIGHWAY_TERTIARY, HIGHWAY_RESIDENTIAL}
	segments := []segment{}
	for i, highway := range highways {
		segments = append(segments, segment{
			wayID:      osm.WayID(i),
			source:     1,
			target:     osm.NodeID(i + 2),
			highway:    highway,
			speedLimit: highway.defaultSpeed(),
		})
	}
	scenario := buildScenario(segments, nodes, &OsmConfiguration{})
	if len(scenario.Roads) != 4 {
		t.Fatalf("Number of roads must be %d, but got %d", 4, len(scenario.Roads))
	}
	for _, road := range scenario.Roads {
		if road.To == 2 {
			t.Errorf("Service road must be dropped")
		}
	}
	if len(scenario.Crosses) != 5 {
		t.Errorf("Number of crosses must be %d, but got %d", 5, len(scenario.Crosses))
	}
}

func TestChoosePriorityAxis(t *testing.T) {
	angles := map[int64]float64{1: 0, 2: math.Pi / 2, 3: math.Pi}
	rank := func(int64) int { return 1 }
	angle := func(roadID int64) float64 { return angles[roadID] }
	axis := choosePriorityAxis([]int64{1, 2, 3}, rank, angle)
	if axis[0] != 1 || axis[1] != 3 {
		t.Errorf("Straight pair must be chosen: [1 3], but got %v", axis)
	}

	ranks := map[int64]int{1: 1, 2: 5, 3: 5}
	axis = choosePriorityAxis([]int64{1, 2, 3}, func(roadID int64) int { return ranks[roadID] }, angle)
	if axis[0] != 2 || axis[1] != 3 {
		t.Errorf("Important pair must be chosen: [2 3], but got %v", axis)
	}
}

func TestParseMaxSpeed(t *testing.T) {
	cases := []struct {
		tag   string
		speed float64
	}{
		{"60", 60 * kmhToMs},
		{"60 km/h", 60 * kmhToMs},
		{"30 mph", 30 * mphToMs},
		{"50;60", 50 * kmhToMs},
		{"none", -1},
		{"RU:urban", -1},
		{"", -1},
	}
	for _, c := range cases {
		speed := parseMaxSpeed(c.tag)
		if math.Abs(speed-c.speed) > eps {
			t.Errorf("Speed for '%s' must be %f, but got %f", c.tag, c.speed, speed)
		}
	}
}

func TestHighwayType(t *testing.T) {
	if getHighwayType("primary").rank() <= getHighwayType("residential").rank() {
		t.Errorf("Primary road must be more important than residential one")
	}
	if getHighwayType("footway") != HIGHWAY_UNDEFINED {
		t.Errorf("Footway must be %s, but got %s", HIGHWAY_UNDEFINED, getHighwayType("footway"))
	}
	way := Way{highway: HIGHWAY_RESIDENTIAL, maxSpeed: -1}
	if math.Abs(way.speedLimit()-30*kmhToMs) > eps {
		t.Errorf("Speed limit must be %f, but got %f", 30*kmhToMs, way.speedLimit())
	}
	cfg := OsmConfiguration{}
	if !cfg.CheckTag("residential") || cfg.CheckTag("footway") {
		t.Errorf("Default tags must accept residential and reject footway")
	}
}

// roadLengths returns planar lengths of scenario roads
func roadLengths(scenario *Scenario) map[int64]float64 {
	crosses := make(map[int64]ScenarioCross)
	for _, sc := range scenario.Crosses {
		crosses[sc.ID] = sc
	}
	lengths := make(map[int64]float64)
	for _, road := range scenario.Roads {
		from, to := crosses[road.From], crosses[road.To]
		lengths[road.ID] = math.Hypot(to.X-from.X, to.Y-from.Y)
	}
	return lengths
}

func TestMergeShortSegments(t *testing.T) {
	// About 100 m, 1 m and 200 m long pieces of one street
	nodes := map[osm.NodeID]*Node{
		1: {ID: 1, geom: orb.Point{37.6, 55.75}},
		2: {ID: 2, geom: orb.Point{37.6016, 55.75}},
		3: {ID: 3, geom: orb.Point{37.60162, 55.75}},
		4: {ID: 4, geom: orb.Point{37.6048, 55.75}},
	}
	segments := []segment{
		{wayID: 1, source: 1, target: 2, highway: HIGHWAY_PRIMARY, speedLimit: 17},
		{wayID: 1, source: 2, target: 3, highway: HIGHWAY_PRIMARY, speedLimit: 17},
		{wayID: 1, source: 3, target: 4, highway: HIGHWAY_PRIMARY, speedLimit: 17},
	}
	scenario := buildScenario(segments, nodes, &OsmConfiguration{})
	if len(scenario.Roads) != 2 {
		t.Fatalf("Number of roads must be %d, but got %d", 2, len(scenario.Roads))
	}
	if len(scenario.Crosses) != 3 {
		t.Errorf("Number of crosses must be %d, but got %d", 3, len(scenario.Crosses))
	}
	for _, sc := range scenario.Crosses {
		if sc.ID == 3 {
			t.Errorf("Cross %d must be merged into cross %d", 3, 2)
		}
	}
	for roadID, length := range roadLengths(scenario) {
		if length < defaultMinRoadLength {
			t.Errorf("Road %d must be at least %f long, but got %f", roadID, defaultMinRoadLength, length)
		}
	}

	sim, err := scenario.Build(WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Run(0.1, 120)
	if err != nil {
		t.Fatal(err)
	}
	if sim.Statistics().Exited == 0 {
		t.Errorf("Vehicles must pass the whole street")
	}
	checkInvariants(t, sim)

	// Threshold is configurable
	scenario = buildScenario(segments, nodes, &OsmConfiguration{MinRoadLength: 0.5})
	if len(scenario.Roads) != 3 {
		t.Errorf("Number of roads must be %d, but got %d", 3, len(scenario.Roads))
	}
}

func TestBuildScenarioMergesJunctionLink(t *testing.T) {
	// Dual carriageway junction: nodes 1 and 2 are about 19 m apart
	nodes := map[osm.NodeID]*Node{
		1: {ID: 1, geom: orb.Point{37.6, 55.75}},
		2: {ID: 2, geom: orb.Point{37.6003, 55.75}},
		3: {ID: 3, geom: orb.Point{37.598, 55.75}},
		4: {ID: 4, geom: orb.Point{37.6023, 55.75}},
		5: {ID: 5, geom: orb.Point{37.6, 55.752}},
		6: {ID: 6, geom: orb.Point{37.6003, 55.748}},
	}
	segments := []segment{
		{wayID: 1, source: 3, target: 1, highway: HIGHWAY_PRIMARY, speedLimit: HIGHWAY_PRIMARY.defaultSpeed()},
		{wayID: 1, source: 1, target: 2, highway: HIGHWAY_PRIMARY, speedLimit: HIGHWAY_PRIMARY.defaultSpeed()},
		{wayID: 1, source: 2, target: 4, highway: HIGHWAY_PRIMARY, speedLimit: HIGHWAY_PRIMARY.defaultSpeed()},
		{wayID: 2, source: 5, target: 1, highway: HIGHWAY_RESIDENTIAL, speedLimit: HIGHWAY_RESIDENTIAL.defaultSpeed()},
		{wayID: 3, source: 2, target: 6, highway: HIGHWAY_RESIDENTIAL, speedLimit: HIGHWAY_RESIDENTIAL.defaultSpeed()},
	}
	scenario := buildScenario(segments, nodes, &OsmConfiguration{GeneratorPeriod: 5})
	if len(scenario.Roads) != 4 {
		t.Fatalf("Number of roads must be %d, but got %d", 4, len(scenario.Roads))
	}
	if len(scenario.Crosses) != 5 {
		t.Errorf("Number of crosses must be %d, but got %d", 5, len(scenario.Crosses))
	}
	for _, road := range scenario.Roads {
		if road.From == 2 || road.To == 2 {
			t.Errorf("Road %d must be attached to cross %d instead of %d", road.ID, 1, 2)
		}
	}
	for roadID, length := range roadLengths(scenario) {
		if length < defaultMinRoadLength {
			t.Errorf("Road %d must be at least %f long, but got %f", roadID, defaultMinRoadLength, length)
		}
	}
	for _, sc := range scenario.Crosses {
		if sc.ID == 1 && (sc.Type != CROSS_INTERSECTION.String() || len(sc.PriorityAxis) != 2) {
			t.Errorf("Cross %d must be intersection with priority axis, but got %s and %v", sc.ID, sc.Type, sc.PriorityAxis)
		}
	}

	sim, err := scenario.Build(WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	err = sim.Run(0.1, 120)
	if err != nil {
		t.Fatal(err)
	}
	checkInvariants(t, sim)
}
