package trafficsim

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// connectedCrosses returns groups of crosses reachable from each other via roads.
// Crosses are sorted inside of group, groups are sorted by the first cross
func connectedCrosses(sim *Simulation) [][]CrossID {
	g := simple.NewUndirectedGraph()
	for _, cross := range sim.crosses {
		g.AddNode(simple.Node(cross.ID))
	}
	for _, road := range sim.roads {
		g.SetEdge(simple.Edge{F: simple.Node(road.cross1), T: simple.Node(road.cross2)})
	}
	components := topo.ConnectedComponents(g)
	groups := make([][]CrossID, 0, len(components))
	for _, component := range components {
		groups = append(groups, crossIDs(component))
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})
	return groups
}

func crossIDs(nodes []graph.Node) []CrossID {
	ids := make([]CrossID, len(nodes))
	for i, node := range nodes {
		ids[i] = CrossID(node.ID())
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Components returns groups of connected crosses found by Prepare
func (sim *Simulation) Components() [][]CrossID {
	groups := make([][]CrossID, len(sim.components))
	for i, group := range sim.components {
		groups[i] = append([]CrossID{}, group...)
	}
	return groups
}
