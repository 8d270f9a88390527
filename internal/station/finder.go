package station

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/metrics"
	"github.com/evapp/ev-backend/internal/models"
)

type Finder struct {
	repo models.StationRepository
}

var _ models.StationFinder = (*Finder)(nil)

func NewFinder(repo models.StationRepository) *Finder {
	return &Finder{repo: repo}
}

// FindNearby returns every station within query.RadiusKm of query.Origin,
// nearest first. Stations at equal distance keep the order the repository
// returned them in. A failure to load candidates is reported as a
// *SearchUnavailableError; an empty result with a nil error means nothing
// matched.
func (f *Finder) FindNearby(ctx context.Context, query models.NearbyQuery) ([]models.NearbyStation, error) {
	candidates, err := f.repo.ListStationsWithCoordinates(ctx, query.MinPowerKw)
	if err != nil {
		metrics.IncNearbyFailure()
		log.Error().Err(err).
			Float64("lat", query.Origin.Latitude).
			Float64("lng", query.Origin.Longitude).
			Msg("Error getting nearby stations")
		return nil, NewSearchUnavailableError(err)
	}

	nearby := make([]models.NearbyStation, 0)
	for _, candidate := range candidates {
		coord, ok := candidate.Coordinate()
		if !ok {
			continue
		}
		if !meetsPower(candidate, query.MinPowerKw) {
			continue
		}

		distance := Distance(query.Origin, coord)
		if distance <= query.RadiusKm {
			nearby = append(nearby, models.NearbyStation{
				Station:    candidate,
				DistanceKm: distance,
			})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	log.Debug().
		Int("candidate_count", len(candidates)).
		Int("station_count", len(nearby)).
		Float64("radius_km", query.RadiusKm).
		Msg("FindNearby: done")
	metrics.ObserveNearbyResults(len(nearby))

	return nearby, nil
}

// meetsPower re-applies the minimum power filter so repositories that cannot
// push it down still produce correct results.
func meetsPower(s models.Station, minPowerKw *float64) bool {
	if minPowerKw == nil {
		return true
	}
	return s.PowerClassKw != nil && *s.PowerClassKw >= *minPowerKw
}
