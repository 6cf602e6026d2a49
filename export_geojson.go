package trafficsim

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

func pointCoordinates(pt orb.Point) []float64 {
	return []float64{pt.X(), pt.Y()}
}

func lineCoordinates(line orb.LineString) [][]float64 {
	pts2d := make([][]float64, len(line))
	for i := range line {
		pts2d[i] = pointCoordinates(line[i])
	}
	return pts2d
}

// FeatureCollection returns crosses, roads and live vehicles as features. Coordinates are planar ones of the simulation
func (sim *Simulation) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, cross := range sim.Crosses() {
		feature := geojson.NewPointFeature(pointCoordinates(cross.Geom))
		feature.SetProperty("kind", "cross")
		feature.SetProperty("id", int(cross.ID))
		feature.SetProperty("cross_type", cross.CrossType.String())
		fc.AddFeature(feature)
	}
	for _, road := range sim.Roads() {
		feature := geojson.NewLineStringFeature(lineCoordinates(road.Geom))
		feature.SetProperty("kind", "road")
		feature.SetProperty("id", int(road.ID))
		feature.SetProperty("speed_limit", road.SpeedLimit)
		feature.SetProperty("vehicles", len(road.Queue12)+len(road.Queue21))
		fc.AddFeature(feature)
	}
	for _, veh := range sim.Vehicles() {
		feature := geojson.NewPointFeature(pointCoordinates(veh.Position))
		feature.SetProperty("kind", "vehicle")
		feature.SetProperty("id", int(veh.ID))
		feature.SetProperty("vehicle_type", veh.VehicleType.String())
		feature.SetProperty("road", int(veh.Road))
		feature.SetProperty("leader", int(veh.Leader))
		feature.SetProperty("speed", veh.V)
		feature.SetProperty("heading", veh.Heading)
		fc.AddFeature(feature)
	}
	return fc
}

// ExportGeoJSON returns GeoJSON representation of the current state
func (sim *Simulation) ExportGeoJSON() ([]byte, error) {
	b, err := sim.FeatureCollection().MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't convert state to geojson format")
	}
	return b, nil
}
