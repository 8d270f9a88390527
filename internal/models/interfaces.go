package models

import "context"

// StationRepository is the persistence capability the nearby search depends on.
type StationRepository interface {
	// ListStationsWithCoordinates returns every station whose latitude and
	// longitude are both known. When minPowerKw is non-nil only stations with a
	// known power class >= *minPowerKw are returned. No ordering is implied.
	ListStationsWithCoordinates(ctx context.Context, minPowerKw *float64) ([]Station, error)
}

type StationFinder interface {
	FindNearby(ctx context.Context, query NearbyQuery) ([]NearbyStation, error)
}

// StationReader serves the plain station listing and lookup endpoints.
type StationReader interface {
	ListStations(ctx context.Context, filter StationFilter) ([]Station, error)
	GetStation(ctx context.Context, id int64) (*Station, error)
}
