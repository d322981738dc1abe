package core

import "math"

// EarthRadiusKm is the mean Earth radius used for the spherical-horizon
// coverage geometry (kilometres). Geodetic conversion uses the full
// WGS-84 ellipsoid instead; this constant is only for footprint math.
const EarthRadiusKm = 6371.0

// Vec3 is an inertial-frame vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// AngleTo returns the geocentric angle between two position vectors in
// radians. This is the curvature measure the track sampler refines on: a
// large angle between adjacent samples means a chord that cuts visibly
// across the orbit arc.
func (v Vec3) AngleTo(other Vec3) float64 {
	n1 := v.Norm()
	n2 := other.Norm()
	if n1 == 0 || n2 == 0 {
		return 0
	}

	cosA := v.Dot(other) / (n1 * n2)
	if cosA > 1 {
		cosA = 1
	} else if cosA < -1 {
		cosA = -1
	}
	return math.Acos(cosA)
}
