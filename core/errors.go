package core

import "errors"

// Propagation and coverage sentinels. Per-object failures are never fatal
// to a cycle: the object is excluded, logged, and retried next cycle.
var (
	// ErrDegenerateOrbit marks element sets whose derived orbit is not
	// physically propagatable (eccentricity outside [0,1), non-positive
	// mean motion or semi-major axis).
	ErrDegenerateOrbit = errors.New("degenerate orbit")

	// ErrPropagationDiverged marks a propagation whose numerical solution
	// failed: the model's bounded iterative solve did not converge, the
	// output was non-finite or unphysical, or the object exceeded its
	// per-cycle time budget.
	ErrPropagationDiverged = errors.New("propagation diverged")

	// ErrInsufficientSamples is returned when a window yields fewer than
	// two valid samples; the object is excluded from that window rather
	// than emitting a degenerate single-point track.
	ErrInsufficientSamples = errors.New("insufficient valid samples")

	// ErrInvalidAltitude rejects coverage computation for non-positive
	// altitudes. The object's position is still reported.
	ErrInvalidAltitude = errors.New("invalid altitude")

	// ErrInvalidElevationAngle rejects minimum elevation angles outside
	// [0°, 90°).
	ErrInvalidElevationAngle = errors.New("invalid elevation angle")
)
