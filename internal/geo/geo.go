// Planar geometry helpers for mission motion integration.
package geo

import "math"

// KmPerDegree approximates the surface distance of one degree of
// latitude/longitude near the equator.
const KmPerDegree = 111.0

// Distance returns the straight-line distance between two points in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat2 - lat1
	dLng := lng2 - lng1
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// StepDegrees converts a speed and travel time into a step length in degrees.
func StepDegrees(speedKmh, seconds float64) float64 {
	return speedKmh * (seconds / 3600) / KmPerDegree
}

// MoveToward moves (lat, lng) toward (destLat, destLng) by at most stepDeg
// degrees along the straight line. The fraction of the remaining delta is
// capped at 1, so the point never overshoots and reaches the destination
// exactly once the remaining distance is zero.
func MoveToward(lat, lng, destLat, destLng, stepDeg float64) (float64, float64) {
	total := Distance(lat, lng, destLat, destLng)
	if total == 0 {
		return destLat, destLng
	}
	frac := stepDeg / total
	if frac > 1 {
		frac = 1
	}
	return lat + (destLat-lat)*frac, lng + (destLng-lng)*frac
}

// HaversineMeters returns the great-circle distance between two points in
// meters. Used for human-facing distances in the admin and TUI views.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
