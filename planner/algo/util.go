package algo

import "math"

// Haversine 球面距离（m）
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EARTH_RADIUS_KM * c * 1000
}

// WalkSeconds 按固定步行速度计算步行用时，向下取整
func WalkSeconds(distance float64) int64 {
	return int64(distance / 1000 / WALK_SPEED_KMH * 3600)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
