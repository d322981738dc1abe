package core

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// Position magnitudes outside this band are treated as numerical failures.
// The lower bound sits just inside the Earth's surface so that a decaying
// object still produces samples (filtered later by altitude sign) instead
// of being dropped mid-orbit; the upper bound is well past GEO and any
// catalogued high-eccentricity orbit.
const (
	minPositionKm = 6000.0
	maxPositionKm = 100000.0
)

// ECIState is an inertial position/velocity pair in km and km/s.
type ECIState struct {
	Position Vec3
	Velocity Vec3
}

// Propagator propagates one element set with the SGP4/SDP4 analytic model
// (WGS-84 constants). Construction validates the element set; Propagate is
// deterministic and safe for concurrent use.
type Propagator struct {
	sat   satellite.Satellite
	elset *model.ElementSet
}

// NewPropagator initialises the SGP4 model for an element set. Element sets
// whose derived orbit parameters are not physically valid are rejected with
// ErrDegenerateOrbit.
func NewPropagator(elset *model.ElementSet) (*Propagator, error) {
	// Re-validate the fixed-width layout: the SGP4 layer parses lines
	// positionally and must never see an unchecked record.
	fields, err := tle.Validate(elset.Line1, elset.Line2)
	if err != nil {
		return nil, err
	}

	if fields.MeanMotion <= 0 {
		return nil, fmt.Errorf("%w: mean motion %v rev/day", ErrDegenerateOrbit, fields.MeanMotion)
	}
	if fields.Eccentricity < 0 || fields.Eccentricity >= 1 {
		return nil, fmt.Errorf("%w: eccentricity %v", ErrDegenerateOrbit, fields.Eccentricity)
	}

	sat := satellite.TLEToSat(elset.Line1, elset.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init code %d: %s", ErrDegenerateOrbit, sat.Error, sat.ErrorStr)
	}

	return &Propagator{sat: sat, elset: elset}, nil
}

// ElementSet returns the record this propagator was built from.
func (p *Propagator) ElementSet() *model.ElementSet {
	return p.elset
}

// Propagate computes the inertial state at the given instant, at one-second
// resolution. The SGP4 model bounds its own iterative anomaly solve; a
// solve that escaped those bounds shows up as a non-finite or unphysical
// output and is reported as ErrPropagationDiverged.
func (p *Propagator) Propagate(at time.Time) (ECIState, error) {
	t := at.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	state := ECIState{
		Position: Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}

	if !finiteVec(state.Position) || !finiteVec(state.Velocity) {
		return ECIState{}, fmt.Errorf("%w: non-finite output at %s", ErrPropagationDiverged, t.Format(time.RFC3339))
	}
	if mag := state.Position.Norm(); mag < minPositionKm || mag > maxPositionKm {
		return ECIState{}, fmt.Errorf("%w: position magnitude %.1f km at %s", ErrPropagationDiverged, mag, t.Format(time.RFC3339))
	}

	return state, nil
}

// ToGeodetic rotates an inertial position into the Earth-fixed frame using
// Greenwich sidereal time at the given instant, then converts to geodetic
// latitude/longitude/altitude against the WGS-84 ellipsoid. Pure function
// of its inputs.
func ToGeodetic(pos Vec3, at time.Time) (latDeg, lonDeg, altKm float64) {
	t := at.UTC()
	gmst := satellite.GSTimeFromDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	altKm, _, lla := satellite.ECIToLLA(satellite.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z}, gmst)

	// The library returns radians with an unnormalised longitude; wrap it
	// ourselves rather than relying on its degree helper.
	latDeg = lla.Latitude * 180 / math.Pi
	lonDeg = wrapLongitude(lla.Longitude * 180 / math.Pi)

	if latDeg > 90 {
		latDeg = 90
	} else if latDeg < -90 {
		latDeg = -90
	}
	return latDeg, lonDeg, altKm
}

// GeodeticSampleAt propagates and converts in one step, producing the
// sample shape the rest of the pipeline consumes.
func (p *Propagator) GeodeticSampleAt(at time.Time) (model.GeodeticSample, ECIState, error) {
	state, err := p.Propagate(at)
	if err != nil {
		return model.GeodeticSample{}, ECIState{}, err
	}

	lat, lon, alt := ToGeodetic(state.Position, at)
	return model.GeodeticSample{
		T:     at.UTC(),
		Lat:   lat,
		Lon:   lon,
		AltKm: alt,
	}, state, nil
}

func wrapLongitude(deg float64) float64 {
	wrapped := math.Mod(deg+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

func finiteVec(v Vec3) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
