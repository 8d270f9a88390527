package station

import (
	"math"

	"github.com/evapp/ev-backend/internal/models"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// coordinates using the haversine formula. Out-of-range input is not
// rejected; the arithmetic stays finite for any finite coordinates.
func Distance(from, to models.Coordinate) float64 {
	return calculateDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
