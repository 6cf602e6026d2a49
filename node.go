package trafficsim

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

type Node struct {
	geom     orb.Point
	ID       osm.NodeID
	useCount int
}
