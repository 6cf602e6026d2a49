package trafficsim

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ImportFromOSMFile Imports road network from OSM file (XML or PBF) as simulation scenario.
/*
	Nodes shared by several ways (and ends of the ways) become crosses, dead ends become generators.
	Roads are straight segments between crosses, coordinates are local meters
*/
func ImportFromOSMFile(fileName string, cfg *OsmConfiguration) (*Scenario, error) {
	if cfg == nil {
		cfg = &OsmConfiguration{EntityName: "highway"}
	}
	if cfg.EntityName == "" {
		cfg.EntityName = "highway"
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer f.Close()

	ways, nodes, err := scanOSM(f, fileName, cfg)
	if err != nil {
		return nil, err
	}

	verbosef(cfg, "Counting node use cases...")
	st := time.Now()
	for _, way := range ways {
		for i, nodeID := range way.Nodes {
			node, ok := nodes[nodeID]
			if !ok {
				return nil, fmt.Errorf("Missing node with id: %d", nodeID)
			}
			if i == 0 || i == len(way.Nodes)-1 {
				node.useCount += 2
			} else {
				node.useCount++
			}
		}
	}
	verbosef(cfg, "Done in %v", time.Since(st))

	verbosef(cfg, "Preparing segments...")
	st = time.Now()
	segments := prepareSegments(ways, nodes)
	verbosef(cfg, "Done in %v. Segments: %d", time.Since(st), len(segments))

	return buildScenario(segments, nodes, cfg), nil
}

// scanOSM collects filtered ways and their nodes
func scanOSM(f *os.File, fileName string, cfg *OsmConfiguration) ([]*Way, map[osm.NodeID]*Node, error) {
	scannerWays, err := newOSMScanner(context.Background(), f, fileName)
	if err != nil {
		return nil, nil, err
	}
	defer scannerWays.Close()

	ways := []*Way{}
	nodesSeen := make(map[osm.NodeID]struct{})
	verbosef(cfg, "Scanning ways...")
	st := time.Now()
	for scannerWays.Scan() {
		obj := scannerWays.Object()
		if obj.ObjectID().Type() != "way" {
			continue
		}
		way := obj.(*osm.Way)
		tag := way.Tags.Find(cfg.EntityName)
		if tag == "" || !cfg.CheckTag(tag) {
			continue
		}
		if len(way.Nodes) < 2 {
			continue
		}
		preparedWay := &Way{
			ID:       way.ID,
			Nodes:    make([]osm.NodeID, 0, len(way.Nodes)),
			highway:  getHighwayType(tag),
			maxSpeed: parseMaxSpeed(way.Tags.Find("maxspeed")),
		}
		for _, node := range way.Nodes {
			nodesSeen[node.ID] = struct{}{}
			preparedWay.Nodes = append(preparedWay.Nodes, node.ID)
		}
		ways = append(ways, preparedWay)
	}
	if scannerWays.Err() != nil {
		return nil, nil, errors.Wrap(scannerWays.Err(), "Scanner error on Ways")
	}
	verbosef(cfg, "Done in %v. Ways: %d", time.Since(st), len(ways))

	// Seek file to start
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't repeat seeking")
	}
	scannerNodes, err := newOSMScanner(context.Background(), f, fileName)
	if err != nil {
		return nil, nil, err
	}
	defer scannerNodes.Close()

	nodes := make(map[osm.NodeID]*Node)
	verbosef(cfg, "Scanning nodes...")
	st = time.Now()
	for scannerNodes.Scan() {
		obj := scannerNodes.Object()
		if obj.ObjectID().Type() != "node" {
			continue
		}
		node := obj.(*osm.Node)
		if _, ok := nodesSeen[node.ID]; ok {
			delete(nodesSeen, node.ID)
			nodes[node.ID] = &Node{
				ID:   node.ID,
				geom: orb.Point{node.Lon, node.Lat},
			}
		}
	}
	if scannerNodes.Err() != nil {
		return nil, nil, errors.Wrap(scannerNodes.Err(), "Scanner error on Nodes")
	}
	verbosef(cfg, "Done in %v. Nodes: %d", time.Since(st), len(nodes))
	return ways, nodes, nil
}

// prepareSegments splits ways by crosses. Loops and repeated segments are skipped
func prepareSegments(ways []*Way, nodes map[osm.NodeID]*Node) []segment {
	type pair struct {
		a, b osm.NodeID
	}
	seen := make(map[pair]struct{})
	segments := []segment{}
	for _, way := range ways {
		source := way.Nodes[0]
		for i := 1; i < len(way.Nodes); i++ {
			nodeID := way.Nodes[i]
			if nodes[nodeID].useCount <= 1 {
				continue
			}
			target := nodeID
			key := pair{source, target}
			if target < source {
				key = pair{target, source}
			}
			_, repeated := seen[key]
			if source != target && !repeated && !nodes[source].geom.Equal(nodes[target].geom) {
				seen[key] = struct{}{}
				segments = append(segments, segment{
					wayID:      way.ID,
					source:     source,
					target:     target,
					highway:    way.highway,
					speedLimit: way.speedLimit(),
				})
			}
			source = target
		}
	}
	return segments
}

// buildScenario turns segments into scenario. Short segments are merged into crosses.
// Crosses can't have more than 4 roads, so the least important segments are dropped
func buildScenario(segments []segment, nodes map[osm.NodeID]*Node, cfg *OsmConfiguration) *Scenario {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].highway.rank() > segments[j].highway.rank()
	})
	points := projectNodes(segments, nodes)
	segments, merged := mergeShortSegments(segments, points, cfg.minRoadLength())
	if merged > 0 {
		logrus.WithField("segments", merged).Warn("Segments merged into crosses since they are shorter than minimal road length")
	}

	degree := make(map[osm.NodeID]int)
	accepted := make([]segment, 0, len(segments))
	dropped := 0
	for _, seg := range segments {
		if degree[seg.source] >= maxRoadsPerCross || degree[seg.target] >= maxRoadsPerCross {
			dropped++
			continue
		}
		degree[seg.source]++
		degree[seg.target]++
		accepted = append(accepted, seg)
	}
	if dropped > 0 {
		logrus.WithField("segments", dropped).Warn("Segments dropped since crosses can't hold more than 4 roads")
	}

	nodeIDs := lo.Keys(degree)
	sort.Slice(nodeIDs, func(i, j int) bool {
		return nodeIDs[i] < nodeIDs[j]
	})
	bound := orb.MultiPoint{}
	for _, nodeID := range nodeIDs {
		bound = append(bound, points[nodeID])
	}
	origin := orb.Point{}
	if len(bound) > 0 {
		origin = bound.Bound().Min
	}

	scenario := Scenario{
		Crosses: make([]ScenarioCross, 0, len(nodeIDs)),
		Roads:   make([]ScenarioRoad, 0, len(accepted)),
	}
	roadsByNode := make(map[osm.NodeID][]int64)
	for i, seg := range accepted {
		id := int64(i)
		scenario.Roads = append(scenario.Roads, ScenarioRoad{
			ID:         id,
			From:       int64(seg.source),
			To:         int64(seg.target),
			SpeedLimit: seg.speedLimit,
		})
		roadsByNode[seg.source] = append(roadsByNode[seg.source], id)
		roadsByNode[seg.target] = append(roadsByNode[seg.target], id)
	}
	for _, nodeID := range nodeIDs {
		pt := points[nodeID]
		sc := ScenarioCross{
			ID: int64(nodeID),
			X:  pt.X() - origin.X(),
			Y:  pt.Y() - origin.Y(),
		}
		if degree[nodeID] == 1 {
			sc.Type = CROSS_GENERATOR.String()
			sc.Period = cfg.generatorPeriod()
		} else {
			sc.Type = CROSS_INTERSECTION.String()
		}
		scenario.Crosses = append(scenario.Crosses, sc)
	}

	// Priority axis and dispatch of crosses having 3 and 4 roads
	angleOf := func(nodeID osm.NodeID, roadID int64) float64 {
		road := accepted[roadID]
		other := road.target
		if other == nodeID {
			other = road.source
		}
		return angleOfSegment(points[nodeID], points[other])
	}
	for i := range scenario.Crosses {
		sc := &scenario.Crosses[i]
		nodeID := osm.NodeID(sc.ID)
		roads := roadsByNode[nodeID]
		if len(roads) < 3 {
			continue
		}
		sort.SliceStable(roads, func(a, b int) bool {
			return angleOf(nodeID, roads[a]) < angleOf(nodeID, roads[b])
		})
		sc.PriorityAxis = choosePriorityAxis(roads, func(roadID int64) int {
			return accepted[roadID].highway.rank()
		}, func(roadID int64) float64 {
			return angleOf(nodeID, roadID)
		})
		sc.Dispatch = &ScenarioDispatch{
			Roads:  roads,
			Matrix: UniformDispatch(len(roads)),
		}
	}
	verbosef(cfg, "Scenario is ready. Crosses: %d, roads: %d", len(scenario.Crosses), len(scenario.Roads))
	return &scenario
}

// projectNodes returns local planar coordinates of segment ends in meters
func projectNodes(segments []segment, nodes map[osm.NodeID]*Node) map[osm.NodeID]orb.Point {
	nodeIDs := lo.Uniq(lo.FlatMap(segments, func(seg segment, _ int) []osm.NodeID {
		return []osm.NodeID{seg.source, seg.target}
	}))
	points := make(map[osm.NodeID]orb.Point, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return points
	}
	// Mercator stretches distances by 1/cos(lat)
	lat := lo.SumBy(nodeIDs, func(nodeID osm.NodeID) float64 {
		return nodes[nodeID].geom.Lat()
	}) / float64(len(nodeIDs))
	scale := math.Cos(lat * math.Pi / 180)
	for _, nodeID := range nodeIDs {
		pt := pointToEuclidean(nodes[nodeID].geom)
		points[nodeID] = orb.Point{pt.X() * scale, pt.Y() * scale}
	}
	return points
}

// mergeShortSegments contracts segments shorter than minLength: the end having less segments is moved into the other one.
// Segments turned into loops or repeated by the contraction are removed, the first (most important) of repeated ones is kept.
// Returns remaining segments and number of contracted ones
func mergeShortSegments(segments []segment, points map[osm.NodeID]orb.Point, minLength float64) ([]segment, int) {
	degree := make(map[osm.NodeID]int)
	for _, seg := range segments {
		degree[seg.source]++
		degree[seg.target]++
	}
	parent := make(map[osm.NodeID]osm.NodeID)
	find := func(nodeID osm.NodeID) osm.NodeID {
		for {
			next, ok := parent[nodeID]
			if !ok {
				return nodeID
			}
			nodeID = next
		}
	}
	merged := 0
	// Kept crosses stay in place, so distances of other segments may shrink after contraction
	for changed := true; changed; {
		changed = false
		for _, seg := range segments {
			a, b := find(seg.source), find(seg.target)
			if a == b || planar.Distance(points[a], points[b]) >= minLength {
				continue
			}
			if degree[b] > degree[a] || (degree[b] == degree[a] && b < a) {
				a, b = b, a
			}
			parent[b] = a
			degree[a] += degree[b] - 2
			merged++
			changed = true
		}
	}
	if merged == 0 {
		return segments, 0
	}

	type pair struct {
		a, b osm.NodeID
	}
	seen := make(map[pair]struct{})
	result := make([]segment, 0, len(segments))
	for _, seg := range segments {
		seg.source, seg.target = find(seg.source), find(seg.target)
		if seg.source == seg.target {
			continue
		}
		key := pair{seg.source, seg.target}
		if key.b < key.a {
			key = pair{key.b, key.a}
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, seg)
	}
	return result, merged
}

// choosePriorityAxis picks the most important pair of roads sorted by angle. For 4 roads only opposite pairs are considered.
// Pairs of the same importance are compared by how straight they are
func choosePriorityAxis(roads []int64, rank func(int64) int, angle func(int64) float64) []int64 {
	candidates := [][2]int{}
	if len(roads) == maxRoadsPerCross {
		candidates = append(candidates, [2]int{0, 2}, [2]int{1, 3})
	} else {
		for a := 0; a < len(roads); a++ {
			for b := a + 1; b < len(roads); b++ {
				candidates = append(candidates, [2]int{a, b})
			}
		}
	}
	best := candidates[0]
	bestRank, bestBend := -1, math.Inf(1)
	for _, candidate := range candidates {
		r1, r2 := roads[candidate[0]], roads[candidate[1]]
		pairRank := rank(r1) + rank(r2)
		bend := math.Abs(math.Abs(normalizeAngle(angle(r1)-angle(r2))) - math.Pi)
		if pairRank > bestRank || (pairRank == bestRank && bend < bestBend) {
			best, bestRank, bestBend = candidate, pairRank, bend
		}
	}
	return []int64{roads[best[0]], roads[best[1]]}
}

func verbosef(cfg *OsmConfiguration, format string, args ...interface{}) {
	if cfg.Verbose {
		logrus.Infof(format, args...)
	}
}
