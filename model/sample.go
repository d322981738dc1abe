package model

import "time"

// GeodeticSample is a time-stamped ground-track point. Latitude and
// longitude are degrees (lat in [-90,90], lon in [-180,180]); altitude is
// kilometres above the WGS-84 ellipsoid. A negative altitude marks a decayed
// or invalid propagation result and is filtered before samples are served.
type GeodeticSample struct {
	T     time.Time `json:"t"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	AltKm float64   `json:"alt_km"`
}

// Footprint is the ground circle within which the satellite is visible above
// the configured minimum elevation angle. Recomputed every cycle, never
// persisted.
type Footprint struct {
	RadiusKm float64 `json:"radius_km"`
}
