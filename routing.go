package trafficsim

import (
	"time"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

var (
	ErrNoRoute = errors.New("no route between crosses")
)

// Router answers free-flow travel time queries. Roads are weighted by length divided by speed limit
type Router struct {
	graph ch.Graph
}

// NewRouter builds contraction hierarchies over the road network of the simulation
func NewRouter(sim *Simulation) (*Router, error) {
	router := &Router{
		graph: ch.Graph{},
	}
	sim.progress("Preparing contraction hierarchies...")
	st := time.Now()
	for _, cross := range sim.crosses {
		err := router.graph.CreateVertex(int64(cross.ID))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex for cross %d", cross.ID)
		}
	}
	for _, road := range sim.roads {
		cost := road.length / road.speedLimit
		err := router.graph.AddEdge(int64(road.cross1), int64(road.cross2), cost)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add edge for road %d", road.ID)
		}
		err = router.graph.AddEdge(int64(road.cross2), int64(road.cross1), cost)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add reverse edge for road %d", road.ID)
		}
	}
	router.graph.PrepareContractionHierarchies()
	sim.progress("Done in %v", time.Since(st))
	return router, nil
}

// FreeFlowTime returns the shortest travel time between two crosses and the crosses along the path
func (router *Router) FreeFlowTime(from, to CrossID) (float64, []CrossID, error) {
	if from == to {
		return 0, []CrossID{from}, nil
	}
	cost, path := router.graph.ShortestPath(int64(from), int64(to))
	if cost < 0 || len(path) == 0 {
		return -1, nil, errors.Wrapf(ErrNoRoute, "%d -> %d", from, to)
	}
	crosses := make([]CrossID, len(path))
	for i, vertex := range path {
		crosses[i] = CrossID(vertex)
	}
	return cost, crosses, nil
}

// Delay returns time lost by the trip compared to free-flow travel between its generators
func (router *Router) Delay(trip Trip) (float64, error) {
	cost, _, err := router.FreeFlowTime(trip.From, trip.To)
	if err != nil {
		return 0, err
	}
	return trip.Duration() - cost, nil
}
