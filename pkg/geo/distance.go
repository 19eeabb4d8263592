package geo

import (
	"fmt"
	"math"
)

const (
	earthRadiusKm   = 6371.0
	averageSpeedKmh = 40.0 // city traffic average
)

// Haversine calculates the great-circle distance in kilometres between two
// coordinates. The result is rounded to two decimal places.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusKm*c*100) / 100
}

// EstimateDurationSeconds returns the estimated travel time in seconds for a
// distance in kilometres, assuming an average city speed of 40 km/h.
func EstimateDurationSeconds(distanceKm float64) int {
	return int(math.Round((distanceKm / averageSpeedKmh) * 3600))
}

// FormatDistance renders meters as a human-readable string ("850 m", "4.2 km").
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// FormatDuration renders seconds as a human-readable string ("45 sec", "12 min", "1 h 5 min").
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d sec", seconds)
	}
	minutes := int(math.Round(float64(seconds) / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}
