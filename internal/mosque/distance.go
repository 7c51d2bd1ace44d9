package mosque

import "math"

// earthRadiusKm is the mean radius of the earth.
const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers, computed with the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
