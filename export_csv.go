package trafficsim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// ExportToCSV writes current state of the simulation to CSV files.
// E.g.: if file name is 'state.csv' then 'state_crosses.csv', 'state_roads.csv', 'state_vehicles.csv' and 'state_trips.csv' will be produced
func (sim *Simulation) ExportToCSV(fname string) error {
	fnameParts := strings.Split(fname, ".csv")
	fnameCrosses := fmt.Sprintf(fnameParts[0] + "_crosses.csv")
	fnameRoads := fmt.Sprintf(fnameParts[0] + "_roads.csv")
	fnameVehicles := fmt.Sprintf(fnameParts[0] + "_vehicles.csv")
	fnameTrips := fmt.Sprintf(fnameParts[0] + "_trips.csv")

	err := sim.exportCrossesToCSV(fnameCrosses)
	if err != nil {
		return errors.Wrap(err, "Can't export crosses")
	}

	err = sim.exportRoadsToCSV(fnameRoads)
	if err != nil {
		return errors.Wrap(err, "Can't export roads")
	}

	err = sim.exportVehiclesToCSV(fnameVehicles)
	if err != nil {
		return errors.Wrap(err, "Can't export vehicles")
	}

	err = sim.exportTripsToCSV(fnameTrips)
	if err != nil {
		return errors.Wrap(err, "Can't export trips")
	}
	return nil
}

func createCSV(fname string) (*os.File, *csv.Writer, error) {
	file, err := os.Create(fname)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't create file")
	}
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	return file, writer, nil
}

func (sim *Simulation) exportCrossesToCSV(fname string) error {
	file, writer, err := createCSV(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "cross_type", "roads", "priority_axis", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, cross := range sim.Crosses() {
		roads := make([]string, len(cross.Roads))
		for i, roadID := range cross.Roads {
			roads[i] = fmt.Sprintf("%d", roadID)
		}
		axis := ""
		if cross.PriorityAxis[0] != NoRoad {
			axis = fmt.Sprintf("%d,%d", cross.PriorityAxis[0], cross.PriorityAxis[1])
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", cross.ID),
			fmt.Sprintf("%s", cross.CrossType),
			strings.Join(roads, ","),
			axis,
			wkt.MarshalString(cross.Geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write cross")
		}
	}
	return nil
}

func (sim *Simulation) exportRoadsToCSV(fname string) error {
	file, writer, err := createCSV(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "cross1", "cross2", "speed_limit", "length", "width", "vehicles_12", "vehicles_21", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, road := range sim.Roads() {
		err = writer.Write([]string{
			fmt.Sprintf("%d", road.ID),
			fmt.Sprintf("%d", road.Cross1),
			fmt.Sprintf("%d", road.Cross2),
			fmt.Sprintf("%f", road.SpeedLimit),
			fmt.Sprintf("%f", road.Length),
			fmt.Sprintf("%f", road.Width),
			fmt.Sprintf("%d", len(road.Queue12)),
			fmt.Sprintf("%d", len(road.Queue21)),
			wkt.MarshalString(road.Geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write road")
		}
	}
	return nil
}

func (sim *Simulation) exportVehiclesToCSV(fname string) error {
	file, writer, err := createCSV(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "vehicle_type", "road", "next_road", "direction", "leader", "x", "v", "a", "heading", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, veh := range sim.Vehicles() {
		err = writer.Write([]string{
			fmt.Sprintf("%d", veh.ID),
			fmt.Sprintf("%s", veh.VehicleType),
			fmt.Sprintf("%d", veh.Road),
			fmt.Sprintf("%d", veh.NextRoad),
			fmt.Sprintf("%s", veh.Direction),
			fmt.Sprintf("%d", veh.Leader),
			fmt.Sprintf("%f", veh.X),
			fmt.Sprintf("%f", veh.V),
			fmt.Sprintf("%f", veh.A),
			fmt.Sprintf("%f", veh.Heading),
			wkt.MarshalString(veh.Position),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write vehicle")
		}
	}
	return nil
}

func (sim *Simulation) exportTripsToCSV(fname string) error {
	file, writer, err := createCSV(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"vehicle_id", "vehicle_type", "from_cross", "to_cross", "start_time", "end_time", "duration", "distance"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, trip := range sim.Trips() {
		err = writer.Write([]string{
			fmt.Sprintf("%d", trip.Vehicle),
			fmt.Sprintf("%s", trip.VehicleType),
			fmt.Sprintf("%d", trip.From),
			fmt.Sprintf("%d", trip.To),
			fmt.Sprintf("%f", trip.StartTime),
			fmt.Sprintf("%f", trip.EndTime),
			fmt.Sprintf("%f", trip.Duration()),
			fmt.Sprintf("%f", trip.Distance),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write trip")
		}
	}
	return nil
}
