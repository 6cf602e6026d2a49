package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/LdDl/trafficsim"
	"github.com/sirupsen/logrus"
)

var (
	scenarioFileName = flag.String("scenario", "", "Filename of YAML scenario. Has priority over -file")
	osmFileName      = flag.String("file", "my_graph.osm.pbf", "Filename of *.osm.pbf or *.osm file to build road network from")
	tagStr           = flag.String("tags", "motorway,trunk,primary,secondary,tertiary,unclassified,residential,living_street,service", "Set of needed highway tags (separated by commas)")
	period           = flag.Float64("period", 10, "Base period of vehicle generation on dead ends of OSM network, seconds")
	minRoadLength    = flag.Float64("min-road", 40, "Minimal road length of OSM network, meters. Shorter segments are merged into neighbour crosses")
	saveScenario     = flag.String("save", "", "Filename to save scenario to (YAML). Useful to edit imported OSM network")
	out              = flag.String("out", "state.csv", "Filename of 'Comma-Separated Values' (CSV) formatted file. E.g.: if file name is 'state.csv' then 'state_crosses.csv', 'state_roads.csv', 'state_vehicles.csv' and 'state_trips.csv' will be produced")
	geojsonOut       = flag.String("geojson", "", "Filename of GeoJSON snapshot of final state. Empty means no GeoJSON output")
	dt               = flag.Float64("dt", 0.1, "Simulation time step, seconds")
	duration         = flag.Float64("duration", 600, "Simulated time, seconds")
	seed             = flag.Int64("seed", -1, "Seed of random source. Negative value means seed from current time")
	model            = flag.String("model", "iidm", "Car-following model. Expected values: idm / iidm")
	wsAddr           = flag.String("ws", "", "Address to serve websocket snapshot stream on, e.g. ':8080'. Empty means no stream")
	realtime         = flag.Float64("speed", 1, "Simulated seconds per wall clock second when streaming")
	verbose          = flag.Bool("verbose", true, "Print progress messages")
)

func main() {

	flag.Parse()

	var scenario *trafficsim.Scenario
	var err error
	if *scenarioFileName != "" {
		scenario, err = trafficsim.LoadScenario(*scenarioFileName)
	} else {
		cfg := trafficsim.OsmConfiguration{
			EntityName:      "highway", // Currrently we do not support others
			Tags:            strings.Split(*tagStr, ","),
			GeneratorPeriod: *period,
			MinRoadLength:   *minRoadLength,
			Verbose:         *verbose,
		}
		scenario, err = trafficsim.ImportFromOSMFile(*osmFileName, &cfg)
	}
	if err != nil {
		logrus.WithError(err).Error("Can't load road network")
		os.Exit(1)
	}

	if *saveScenario != "" {
		err = scenario.Save(*saveScenario)
		if err != nil {
			logrus.WithError(err).Error("Can't save scenario")
			os.Exit(1)
		}
	}

	options := []func(*trafficsim.Simulation){
		trafficsim.WithVerbose(*verbose),
	}
	if *seed >= 0 {
		options = append(options, trafficsim.WithSeed(*seed))
	}
	if *model != "" {
		carFollowing := trafficsim.MODEL_UNDEFINED
		switch strings.ToLower(*model) {
		case "idm":
			carFollowing = trafficsim.MODEL_IDM
		case "iidm":
			carFollowing = trafficsim.MODEL_IIDM
		default:
			logrus.WithField("model", *model).Error("Unknown car-following model")
			os.Exit(1)
		}
		options = append(options, trafficsim.WithModel(carFollowing))
	}

	sim, err := scenario.Build(options...)
	if err != nil {
		logrus.WithError(err).Error("Can't build simulation")
		os.Exit(1)
	}

	if *wsAddr != "" {
		err = runStreaming(sim)
	} else {
		err = sim.Run(*dt, *duration)
	}
	if err != nil {
		logrus.WithError(err).Error("Simulation has been aborted")
	}

	stats := sim.Statistics()
	logrus.WithFields(logrus.Fields{
		"time":          stats.Time,
		"generated":     stats.Generated,
		"exited":        stats.Exited,
		"live":          stats.Live,
		"average_speed": stats.AverageSpeed,
	}).Info("Simulation is over")

	reportDelays(sim)

	err = sim.ExportToCSV(*out)
	if err != nil {
		logrus.WithError(err).Error("Can't export state to CSV")
		os.Exit(1)
	}
	if *geojsonOut != "" {
		b, err := sim.ExportGeoJSON()
		if err != nil {
			logrus.WithError(err).Error("Can't export state to GeoJSON")
			os.Exit(1)
		}
		err = os.WriteFile(*geojsonOut, b, 0644)
		if err != nil {
			logrus.WithError(err).Error("Can't write GeoJSON file")
			os.Exit(1)
		}
	}
}

// runStreaming advances the simulation in pace with wall clock and publishes every step
func runStreaming(sim *trafficsim.Simulation) error {
	s := newStream()
	go s.start(*wsAddr, 100*time.Millisecond)

	factor := *realtime
	if factor <= 0 {
		factor = 1
	}
	pace := time.Duration(*dt / factor * float64(time.Second))
	if pace <= 0 {
		pace = time.Millisecond
	}
	ticker := time.NewTicker(pace)
	defer ticker.Stop()
	end := sim.Time() + *duration
	for range ticker.C {
		if sim.Time()+*dt/2 >= end {
			return nil
		}
		err := sim.Advance(*dt)
		if err != nil {
			return err
		}
		s.publish(sim)
	}
	return nil
}

// reportDelays compares completed trips with free-flow travel times
func reportDelays(sim *trafficsim.Simulation) {
	trips := sim.Trips()
	if len(trips) == 0 {
		return
	}
	router, err := trafficsim.NewRouter(sim)
	if err != nil {
		logrus.WithError(err).Warn("Can't prepare router")
		return
	}
	total := 0.0
	counted := 0
	for _, trip := range trips {
		delay, err := router.Delay(trip)
		if err != nil {
			continue
		}
		total += delay
		counted++
	}
	if counted == 0 {
		return
	}
	logrus.WithFields(logrus.Fields{
		"trips":         counted,
		"average_delay": total / float64(counted),
	}).Info("Delays compared to free-flow travel")
}
