package game

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

type Coordinates struct {
	Lat float64
	Lng float64
}

// DistanceKm returns the great-circle distance between two points in
// kilometers. It is symmetric and DistanceKm(a, a) == 0.
func DistanceKm(a, b Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ScoreMultiplier maps a distance to the banded score multiplier. It is
// total and monotonically non-increasing in distance.
func ScoreMultiplier(distanceKm float64) float64 {
	switch {
	case distanceKm == 0:
		return 1.00
	case distanceKm <= 100:
		return 0.90
	case distanceKm <= 500:
		return 0.75
	case distanceKm <= 1500:
		return 0.50
	default:
		return 0.25
	}
}

// CategoryLabel names the distance band for human-readable feedback.
// It never participates in score arithmetic.
func CategoryLabel(distanceKm float64) string {
	switch {
	case distanceKm == 0:
		return "perfect"
	case distanceKm <= 100:
		return "excellent"
	case distanceKm <= 500:
		return "good"
	case distanceKm <= 1500:
		return "fair"
	default:
		return "poor"
	}
}
