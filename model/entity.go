package model

// EntityKind discriminates the closed set of renderable entity variants.
// Consumers switch on the kind and can treat an unknown value as a bug.
type EntityKind int

const (
	EntityKindUnknown EntityKind = iota
	EntityKindSatelliteTrack
	EntityKindGroundStation
	EntityKindCoverageFootprint
)

// String returns the wire name for the kind.
func (k EntityKind) String() string {
	switch k {
	case EntityKindSatelliteTrack:
		return "satellite_track"
	case EntityKindGroundStation:
		return "ground_station"
	case EntityKindCoverageFootprint:
		return "coverage_footprint"
	default:
		return "unknown"
	}
}

// SatelliteTrack bundles a satellite's current position with its sampled
// ground track for one snapshot cycle.
type SatelliteTrack struct {
	Satellite Satellite
	Position  GeodeticSample
	Samples   []GeodeticSample
}

// CoverageFootprint is a ground circle centred under a satellite.
type CoverageFootprint struct {
	NoradID  int     `json:"norad_id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// Entity is a tagged variant over the renderable entity kinds. Exactly one
// of the pointer fields matching Kind is non-nil.
type Entity struct {
	Kind      EntityKind
	Track     *SatelliteTrack
	Station   *GroundStation
	Footprint *CoverageFootprint
}

func TrackEntity(track SatelliteTrack) Entity {
	return Entity{Kind: EntityKindSatelliteTrack, Track: &track}
}

func StationEntity(station GroundStation) Entity {
	return Entity{Kind: EntityKindGroundStation, Station: &station}
}

func FootprintEntity(fp CoverageFootprint) Entity {
	return Entity{Kind: EntityKindCoverageFootprint, Footprint: &fp}
}
