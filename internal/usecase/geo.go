package usecase

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two
// coordinates. The squared half-chord term is clamped to [0, 1] before the
// square root so that near-identical and near-antipodal points never produce a
// domain error from floating-point overshoot.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(rLat1)*math.Cos(rLat2)*sinLon*sinLon

	// Clamp against floating-point overshoot
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
