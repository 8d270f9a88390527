package api

import (
	"encoding/json"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evapp/ev-backend/internal/models"
)

func TestSuccess(t *testing.T) {
	resp, err := Success(NewNearbyResponse(nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.JSONEq(t, `{"responseType":"nearby","stations":[]}`, resp.Body)

	resp.Headers["X-Test"] = "1"
	again, _ := Success(NewStationsResponse(nil))
	assert.NotContains(t, again.Headers, "X-Test")
}

func TestSuccessWithUnencodableBody(t *testing.T) {
	resp, err := Success(math.NaN())
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestError(t *testing.T) {
	resp, err := Error("Station not found", http.StatusNotFound)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "error", body.ResponseType)
	assert.Equal(t, "Station not found", body.Error)
}

func TestParseNearbyQuery(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		params  map[string]string
		want    models.NearbyQuery
		wantErr string
	}{
		{
			name:   "defaults",
			params: map[string]string{"lat": "52.52", "lng": "13.405"},
			want:   models.NearbyQuery{Origin: models.Coordinate{Latitude: 52.52, Longitude: 13.405}, RadiusKm: 10},
		},
		{
			name:   "lon alias and filters",
			params: map[string]string{"lat": "1", "lon": "2", "radius": "25.5", "min_power": "50"},
			want:   models.NearbyQuery{Origin: models.Coordinate{Latitude: 1, Longitude: 2}, RadiusKm: 25.5, MinPowerKw: f(50)},
		},
		{
			name:   "zero min power is kept",
			params: map[string]string{"lat": "1", "lng": "2", "min_power": "0"},
			want:   models.NearbyQuery{Origin: models.Coordinate{Latitude: 1, Longitude: 2}, RadiusKm: 10, MinPowerKw: f(0)},
		},
		{
			name:   "out of range coordinates accepted",
			params: map[string]string{"lat": "95", "lng": "200", "radius": "-1"},
			want:   models.NearbyQuery{Origin: models.Coordinate{Latitude: 95, Longitude: 200}, RadiusKm: -1},
		},
		{name: "missing lat", params: map[string]string{"lng": "2"}, wantErr: `"lat"`},
		{name: "missing lng", params: map[string]string{"lat": "2"}, wantErr: `"lng"`},
		{name: "blank lat", params: map[string]string{"lat": " ", "lng": "2"}, wantErr: `"lat"`},
		{name: "bad lat", params: map[string]string{"lat": "north", "lng": "2"}, wantErr: `"lat"`},
		{name: "bad radius", params: map[string]string{"lat": "1", "lng": "2", "radius": "far"}, wantErr: `"radius"`},
		{name: "bad min power", params: map[string]string{"lat": "1", "lng": "2", "min_power": "fast"}, wantErr: `"min_power"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNearbyQuery(tt.params)
			if tt.wantErr != "" {
				var perr *InvalidParameterError
				require.ErrorAs(t, err, &perr)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePaging(t *testing.T) {
	skip, limit, err := ParsePaging(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, 0, skip)
	assert.Equal(t, DefaultLimit, limit)

	skip, limit, err = ParsePaging(map[string]string{"skip": "20", "limit": "5000"})
	require.NoError(t, err)
	assert.Equal(t, 20, skip)
	assert.Equal(t, MaxLimit, limit)

	for _, params := range []map[string]string{
		{"skip": "-1"},
		{"limit": "-1"},
		{"skip": "two"},
		{"limit": "1.5"},
	} {
		_, _, err := ParsePaging(params)
		var perr *InvalidParameterError
		assert.ErrorAs(t, err, &perr, "params %v", params)
	}
}

func TestOptionalStringAndParseID(t *testing.T) {
	assert.Nil(t, OptionalString(map[string]string{"country": "  "}, "country"))
	assert.Equal(t, "DE", *OptionalString(map[string]string{"country": "DE"}, "country"))

	id, err := ParseID("id", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, err := ParseID("id", raw)
		assert.Error(t, err, raw)
	}
}
