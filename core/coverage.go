package core

import (
	"fmt"
	"math"
)

// CoverageRadiusKm computes the ground-footprint radius for a satellite at
// altitude h km as seen above a minimum usable elevation angle, using
// spherical-Earth horizon geometry:
//
//	radius = sqrt((R+h)² − (R·cos e)²) − R·sin e
//
// The footprint is an approximation for rendering, so the spherical radius
// is fine here even though positions themselves are geodetic.
func CoverageRadiusKm(altitudeKm, minElevationDeg float64) (float64, error) {
	if altitudeKm <= 0 {
		return 0, fmt.Errorf("%w: %v km", ErrInvalidAltitude, altitudeKm)
	}
	if minElevationDeg < 0 || minElevationDeg >= 90 {
		return 0, fmt.Errorf("%w: %v° outside [0°, 90°)", ErrInvalidElevationAngle, minElevationDeg)
	}

	e := minElevationDeg * math.Pi / 180
	r := EarthRadiusKm + altitudeKm
	horizon := EarthRadiusKm * math.Cos(e)

	return math.Sqrt(r*r-horizon*horizon) - EarthRadiusKm*math.Sin(e), nil
}
