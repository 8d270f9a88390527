package models

import "time"

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

type Station struct {
	ID           int64     `json:"id"`
	StationID    *string   `json:"station_id"`
	Name         *string   `json:"name"`
	Latitude     *float64  `json:"lat"`
	Longitude    *float64  `json:"lon"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	Country      *string   `json:"country"`
	PowerClassKw *float64  `json:"power_class_kw"`
	Connectors   *string   `json:"connectors"`
	CreatedAt    time.Time `json:"created_at"`
}

// Coordinate returns the station location. The second value is false when
// either latitude or longitude is unknown.
func (s Station) Coordinate() (Coordinate, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

// NearbyStation is a station annotated with its distance from a search origin.
type NearbyStation struct {
	Station
	DistanceKm float64 `json:"distance_km"`
}

// NearbyQuery describes a radius search around an origin.
type NearbyQuery struct {
	Origin     Coordinate
	RadiusKm   float64
	MinPowerKw *float64
}

// DefaultRadiusKm is used when a caller does not send a radius.
const DefaultRadiusKm = 10.0

// StationFilter narrows a paged station listing.
type StationFilter struct {
	Skip    int
	Limit   int
	Country *string
}

type StationStats struct {
	TotalStations           int     `json:"total_stations"`
	StationsWithCoordinates int     `json:"stations_with_coordinates"`
	CountriesCovered        int     `json:"countries_covered"`
	AveragePowerKw          float64 `json:"average_power_kw"`
}

// CountryCount is one row of a per-country station tally.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// PowerBucket is one row of the power class distribution.
type PowerBucket struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
