package trafficsim

// OsmConfiguration Allows to filter ways by certain tags from OSM data
type OsmConfiguration struct {
	EntityName string // Currrently we support 'highway' only
	Tags       []string
	// Base period of generators placed on dead ends, seconds
	GeneratorPeriod float64
	// Segments shorter than this are merged into the neighbour cross, meters.
	// Vehicle entering the road carries its overshoot, so the road must be longer than truck plus distance covered per step
	MinRoadLength float64
	Verbose       bool
}

var (
	defaultOsmTags = []string{"motorway", "trunk", "primary", "secondary", "tertiary", "unclassified", "residential", "living_street", "service"}
)

const (
	defaultGeneratorPeriod = 10.0
	defaultMinRoadLength   = 40.0
)

// CheckTag Checks if incoming tag is represented in configuration
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	tags := cfg.Tags
	if len(tags) == 0 {
		tags = defaultOsmTags
	}
	for i := range tags {
		if tags[i] == tag {
			return true
		}
	}
	return false
}

func (cfg *OsmConfiguration) generatorPeriod() float64 {
	if cfg.GeneratorPeriod > 0 {
		return cfg.GeneratorPeriod
	}
	return defaultGeneratorPeriod
}

func (cfg *OsmConfiguration) minRoadLength() float64 {
	if cfg.MinRoadLength > 0 {
		return cfg.MinRoadLength
	}
	return defaultMinRoadLength
}
