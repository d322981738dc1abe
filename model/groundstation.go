package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// GroundStation is a static reference entity. Stations are owned by
// configuration and read-only to the tracking core; they are never
// propagated, only rendered alongside satellite tracks.
type GroundStation struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// LoadGroundStations reads a JSON array of stations from r. Entries with
// out-of-range coordinates are rejected as a whole; the reference list is
// small and curated, so a bad entry means a bad file.
func LoadGroundStations(r io.Reader) ([]GroundStation, error) {
	var stations []GroundStation
	dec := json.NewDecoder(r)
	if err := dec.Decode(&stations); err != nil {
		return nil, fmt.Errorf("LoadGroundStations: decode failed: %w", err)
	}

	for _, s := range stations {
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			return nil, fmt.Errorf("LoadGroundStations: station %q has coordinates out of range (lat=%v lon=%v)", s.Name, s.Lat, s.Lon)
		}
	}
	return stations, nil
}
