package station

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evapp/ev-backend/internal/models"
)

// mockStationRepository implements models.StationRepository for testing
type mockStationRepository struct {
	listFn   func(ctx context.Context, minPowerKw *float64) ([]models.Station, error)
	lastMin  *float64
	numCalls int
}

func (m *mockStationRepository) ListStationsWithCoordinates(ctx context.Context, minPowerKw *float64) ([]models.Station, error) {
	m.numCalls++
	m.lastMin = minPowerKw
	if m.listFn != nil {
		return m.listFn(ctx, minPowerKw)
	}
	return nil, nil
}

func staticRepo(stations ...models.Station) *mockStationRepository {
	return &mockStationRepository{
		listFn: func(_ context.Context, _ *float64) ([]models.Station, error) {
			return stations, nil
		},
	}
}

func float64Ptr(f float64) *float64 { return &f }
func stringPtr(s string) *string    { return &s }

func createTestStation(id string, lat, lon float64, power *float64) models.Station {
	return models.Station{
		StationID:    stringPtr(id),
		Name:         stringPtr("Station " + id),
		Latitude:     float64Ptr(lat),
		Longitude:    float64Ptr(lon),
		PowerClassKw: power,
	}
}

var (
	berlin    = models.Coordinate{Latitude: 52.5200, Longitude: 13.4050}
	potsdam   = createTestStation("potsdam", 52.3906, 13.0645, float64Ptr(50))
	alex      = createTestStation("alex", 52.5219, 13.4132, float64Ptr(150))
	mitte     = createTestStation("mitte", 52.5200, 13.4050, float64Ptr(22))
	hamburg   = createTestStation("hamburg", 53.5511, 9.9937, float64Ptr(350))
	noPower   = createTestStation("unknown-power", 52.5250, 13.4000, nil)
	allBerlin = []models.Station{potsdam, hamburg, alex, noPower, mitte}
)

func stationIDs(nearby []models.NearbyStation) []string {
	ids := make([]string, len(nearby))
	for i, n := range nearby {
		ids[i] = *n.StationID
	}
	return ids
}

func TestFinder_FindNearby(t *testing.T) {
	tests := []struct {
		name     string
		query    models.NearbyQuery
		wantIDs  []string
		wantCall *float64
	}{
		{
			name:    "default radius keeps city stations nearest first",
			query:   models.NearbyQuery{Origin: berlin, RadiusKm: models.DefaultRadiusKm},
			wantIDs: []string{"mitte", "alex", "unknown-power"},
		},
		{
			name:    "wider radius includes potsdam",
			query:   models.NearbyQuery{Origin: berlin, RadiusKm: 50},
			wantIDs: []string{"mitte", "alex", "unknown-power", "potsdam"},
		},
		{
			name:    "everything within a continent",
			query:   models.NearbyQuery{Origin: berlin, RadiusKm: 1000},
			wantIDs: []string{"mitte", "alex", "unknown-power", "potsdam", "hamburg"},
		},
		{
			name:     "min power excludes slow and unknown stations",
			query:    models.NearbyQuery{Origin: berlin, RadiusKm: 50, MinPowerKw: float64Ptr(50)},
			wantIDs:  []string{"alex", "potsdam"},
			wantCall: float64Ptr(50),
		},
		{
			name:     "zero threshold still drops unknown power",
			query:    models.NearbyQuery{Origin: berlin, RadiusKm: 50, MinPowerKw: float64Ptr(0)},
			wantIDs:  []string{"mitte", "alex", "potsdam"},
			wantCall: float64Ptr(0),
		},
		{
			name:    "zero radius returns only the exact origin",
			query:   models.NearbyQuery{Origin: berlin, RadiusKm: 0},
			wantIDs: []string{"mitte"},
		},
		{
			name:    "negative radius returns nothing",
			query:   models.NearbyQuery{Origin: berlin, RadiusKm: -5},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := staticRepo(allBerlin...)
			finder := NewFinder(repo)

			got, err := finder.FindNearby(context.Background(), tt.query)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantIDs, stationIDs(got))
			assert.Equal(t, tt.wantCall, repo.lastMin)

			// Verify stations are sorted by distance
			for i := 1; i < len(got); i++ {
				assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm,
					"Stations should be sorted by distance")
			}
		})
	}
}

func TestFinder_FindNearbyIdentity(t *testing.T) {
	finder := NewFinder(staticRepo(allBerlin...))

	for _, s := range allBerlin {
		origin, ok := s.Coordinate()
		require.True(t, ok)

		got, err := finder.FindNearby(context.Background(), models.NearbyQuery{Origin: origin, RadiusKm: 0})
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Contains(t, stationIDs(got), *s.StationID)
		assert.InDelta(t, 0, got[0].DistanceKm, 1e-9)
	}
}

func TestFinder_FindNearbyRadiusMonotonic(t *testing.T) {
	finder := NewFinder(staticRepo(allBerlin...))
	radii := []float64{0, 0.5, 1, 5, 10, 30, 100, 300, 1000}

	var previous []string
	for _, r := range radii {
		got, err := finder.FindNearby(context.Background(), models.NearbyQuery{Origin: berlin, RadiusKm: r})
		require.NoError(t, err)

		ids := stationIDs(got)
		for _, id := range previous {
			assert.Contains(t, ids, id, "station %s lost when radius grew to %v", id, r)
		}
		previous = ids
	}
}

func TestFinder_FindNearbyKeepsRepositoryOrderOnTies(t *testing.T) {
	first := createTestStation("first", 52.5300, 13.4050, nil)
	second := createTestStation("second", 52.5300, 13.4050, nil)
	third := createTestStation("third", 52.5300, 13.4050, nil)

	finder := NewFinder(staticRepo(second, third, first))
	got, err := finder.FindNearby(context.Background(), models.NearbyQuery{Origin: berlin, RadiusKm: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"second", "third", "first"}, stationIDs(got))
}

func TestFinder_FindNearbySkipsStationsWithoutLocation(t *testing.T) {
	missing := models.Station{StationID: stringPtr("nowhere"), Latitude: float64Ptr(52.52)}
	finder := NewFinder(staticRepo(missing, mitte))

	got, err := finder.FindNearby(context.Background(), models.NearbyQuery{Origin: berlin, RadiusKm: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"mitte"}, stationIDs(got))
}

func TestFinder_FindNearbyNoCandidates(t *testing.T) {
	finder := NewFinder(staticRepo())

	got, err := finder.FindNearby(context.Background(), models.NearbyQuery{Origin: berlin, RadiusKm: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFinder_FindNearbyRepositoryFailure(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &mockStationRepository{
		listFn: func(_ context.Context, _ *float64) ([]models.Station, error) {
			return nil, dbErr
		},
	}
	finder := NewFinder(repo)

	got, err := finder.FindNearby(context.Background(), models.NearbyQuery{Origin: berlin, RadiusKm: 10})
	assert.Empty(t, got)
	require.Error(t, err)

	var unavailable *SearchUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 1, repo.numCalls)
}
