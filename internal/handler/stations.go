package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/api"
	"github.com/evapp/ev-backend/internal/models"
	"github.com/evapp/ev-backend/internal/station"
)

type StationsHandler struct {
	stationFinder models.StationFinder
	stations      models.StationReader
	strictErrors  bool
}

// NewStationsHandler builds the Lambda entry point for station queries. With
// strictErrors a failed nearby search answers 503 instead of an empty list.
func NewStationsHandler(finder models.StationFinder, stations models.StationReader, strictErrors bool) *StationsHandler {
	return &StationsHandler{
		stationFinder: finder,
		stations:      stations,
		strictErrors:  strictErrors,
	}
}

func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	// Look up a single station by id, otherwise search around a coordinate
	if rawID, ok := params["id"]; ok {
		id, err := api.ParseID("id", rawID)
		if err != nil {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		st, err := h.stations.GetStation(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return api.Error("Station not found", http.StatusNotFound)
		}
		if err != nil {
			log.Error().Err(err).Int64("id", id).Msg("Error finding station")
			return api.Error("Error finding station", http.StatusInternalServerError)
		}
		return api.Success(api.NewStationsResponse([]models.Station{*st}))
	}

	query, err := api.ParseNearbyQuery(params)
	if err != nil {
		var paramErr *api.InvalidParameterError
		if errors.As(err, &paramErr) {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		return api.Error("Invalid parameters", http.StatusBadRequest)
	}

	stations, err := h.stationFinder.FindNearby(ctx, query)
	if err != nil {
		var unavailable *station.SearchUnavailableError
		if errors.As(err, &unavailable) && !h.strictErrors {
			return api.Success(api.NewNearbyResponse(nil))
		}
		return api.Error("Station search unavailable", http.StatusServiceUnavailable)
	}

	return api.Success(api.NewNearbyResponse(stations))
}
