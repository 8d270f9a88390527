package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evapp/ev-backend/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, CreateSchema(db))
	return db
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func testStation(id string, lat, lon *float64, country string, power *float64) models.Station {
	st := models.Station{
		StationID:    strPtr(id),
		Name:         strPtr("Station " + id),
		Latitude:     lat,
		Longitude:    lon,
		PowerClassKw: power,
	}
	if country != "" {
		st.Country = strPtr(country)
	}
	return st
}

func seedStations(t *testing.T, s *StationStore) {
	t.Helper()
	stations := []models.Station{
		testStation("de-1", floatPtr(52.52), floatPtr(13.405), "DE", floatPtr(22)),
		testStation("de-2", floatPtr(52.5219), floatPtr(13.4132), "DE", floatPtr(150)),
		testStation("de-3", floatPtr(52.53), floatPtr(13.40), "DE", nil),
		testStation("fr-1", floatPtr(48.8566), floatPtr(2.3522), "FR", floatPtr(350)),
		testStation("xx-1", nil, floatPtr(2.0), "", floatPtr(11)),
	}
	n, failed, err := s.InsertStations(context.Background(), stations)
	require.NoError(t, err)
	require.Empty(t, failed)
	require.Equal(t, len(stations), n)
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, CreateSchema(db))

	counts, err := TableCounts(context.Background(), db)
	require.NoError(t, err)
	want := []TableCount{{"stations", 0}, {"ev_models", 0}, {"users", 0}}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("TableCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestListStationsWithCoordinates(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(setupTestDB(t))
	seedStations(t, s)

	tests := []struct {
		name     string
		minPower *float64
		wantIDs  []string
	}{
		{name: "no filter", minPower: nil, wantIDs: []string{"de-1", "de-2", "de-3", "fr-1"}},
		{name: "min power 50", minPower: floatPtr(50), wantIDs: []string{"de-2", "fr-1"}},
		{name: "min power is inclusive", minPower: floatPtr(150), wantIDs: []string{"de-2", "fr-1"}},
		{name: "zero still drops unknown power", minPower: floatPtr(0), wantIDs: []string{"de-1", "de-2", "fr-1"}},
		{name: "nothing matches", minPower: floatPtr(1000), wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stations, err := s.ListStationsWithCoordinates(ctx, tt.minPower)
			require.NoError(t, err)
			require.NotNil(t, stations)

			ids := make([]string, 0, len(stations))
			for _, st := range stations {
				_, ok := st.Coordinate()
				assert.True(t, ok)
				ids = append(ids, *st.StationID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestListAndGetStation(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(setupTestDB(t))
	seedStations(t, s)

	page, err := s.ListStations(ctx, models.StationFilter{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "de-2", *page[0].StationID)
	assert.Equal(t, "de-3", *page[1].StationID)

	fr, err := s.ListStations(ctx, models.StationFilter{Limit: 100, Country: strPtr("FR")})
	require.NoError(t, err)
	require.Len(t, fr, 1)

	got, err := s.GetStation(ctx, fr[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "fr-1", *got.StationID)
	assert.InDelta(t, 350.0, *got.PowerClassKw, 1e-9)
	assert.Nil(t, got.Address)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetStation(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStationStats(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(setupTestDB(t))

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StationStats{}, *empty)

	seedStations(t, s)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalStations)
	assert.Equal(t, 4, stats.StationsWithCoordinates)
	assert.Equal(t, 2, stats.CountriesCovered)
	// (22 + 150 + 350) / 3, station without country excluded
	assert.InDelta(t, 174.0, stats.AveragePowerKw, 1e-9)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStationStatsIgnoresZeroPower(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(setupTestDB(t))
	seedStations(t, s)

	_, failed, err := s.InsertStations(ctx, []models.Station{
		testStation("de-0", floatPtr(52.0), floatPtr(13.0), "DE", floatPtr(0)),
	})
	require.NoError(t, err)
	require.Empty(t, failed)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalStations)
	assert.InDelta(t, 174.0, stats.AveragePowerKw, 1e-9)
}

func TestTopCountriesAndPowerDistribution(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(setupTestDB(t))
	seedStations(t, s)

	top, err := s.TopCountries(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.CountryCount{{Country: "DE", Count: 3}}, top)

	buckets, err := s.PowerDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.PowerBucket{
		{Category: PowerSlow, Count: 2},
		{Category: PowerFast, Count: 1},
		{Category: PowerUltraFast, Count: 1},
	}, buckets)
}

func TestInsertStationsReportsDuplicateRows(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(setupTestDB(t))
	seedStations(t, s)

	batch := []models.Station{
		testStation("new-1", floatPtr(1), floatPtr(1), "ES", nil),
		testStation("de-1", floatPtr(1), floatPtr(1), "ES", nil),
		testStation("new-2", floatPtr(2), floatPtr(2), "ES", nil),
	}
	n, failed, err := s.InsertStations(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, failed, 1)
	assert.Equal(t, "de-1", *failed[0].Station.StationID)
	assert.Contains(t, failed[0].Error(), "de-1")

	ids, err := s.ExistingStationIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 7)
	assert.Contains(t, ids, "new-2")
}

func TestVehicleStore(t *testing.T) {
	ctx := context.Background()
	s := NewVehicleStore(setupTestDB(t))

	fast := true
	year := 2024
	batch := make([]models.EVModel, 0, 5)
	for i, m := range []string{"Tesla", "tesla motors", "BYD", "Kia", "Tesla"} {
		batch = append(batch, models.EVModel{
			ModelName:           strPtr(fmt.Sprintf("Model %d", i)),
			Manufacturer:        strPtr(m),
			RangeKm:             floatPtr(400),
			FastChargingSupport: &fast,
			ReleaseYear:         &year,
		})
	}
	n, err := s.InsertVehicles(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	teslas, err := s.ListVehicles(ctx, models.VehicleFilter{Limit: 100, Manufacturer: strPtr("TESLA")})
	require.NoError(t, err)
	assert.Len(t, teslas, 3)

	page, err := s.ListVehicles(ctx, models.VehicleFilter{Skip: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	got, err := s.GetVehicle(ctx, teslas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Model 0", *got.ModelName)
	assert.Equal(t, 2024, *got.ReleaseYear)
	assert.True(t, *got.FastChargingSupport)
	assert.Nil(t, got.PriceUSD)

	_, err = s.GetVehicle(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalVehicles)
	assert.Equal(t, 4, stats.Manufacturers)
	assert.Equal(t, "Found 5 EV models from 4 manufacturers", stats.Message)

	require.NoError(t, s.DeleteVehicles(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalVehicles)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(setupTestDB(t))

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	u := &models.User{
		ID:             "6f1c1a52-0d59-4c55-9c52-7f0e5d1f7f10",
		Email:          "ada@example.com",
		HashedPassword: "hash",
		FullName:       strPtr("Ada"),
		IsActive:       true,
		CreatedAt:      created,
	}
	require.NoError(t, s.CreateUser(ctx, u))

	dup := *u
	dup.ID = "another"
	err := s.CreateUser(ctx, &dup)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.HashedPassword)
	assert.Equal(t, "Ada", *got.FullName)
	assert.True(t, got.IsActive)
	assert.True(t, created.Equal(got.CreatedAt.UTC()), "created_at %v", got.CreatedAt)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
