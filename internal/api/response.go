package api

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/evapp/ev-backend/internal/models"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type StationsResponse struct {
	APIResponse
	Stations []models.Station `json:"stations"`
}

type NearbyResponse struct {
	APIResponse
	Stations []models.NearbyStation `json:"stations"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewStationsResponse(stations []models.Station) *StationsResponse {
	return &StationsResponse{
		APIResponse: APIResponse{ResponseType: "stations"},
		Stations:    stations,
	}
}

func NewNearbyResponse(stations []models.NearbyStation) *NearbyResponse {
	if stations == nil {
		stations = []models.NearbyStation{}
	}
	return &NearbyResponse{
		APIResponse: APIResponse{ResponseType: "nearby"},
		Stations:    stations,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

var defaultHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

func headers() map[string]string {
	h := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		h[k] = v
	}
	return h
}

// Success wraps body in a 200 API Gateway response.
func Success(body any) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers(),
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(body),
	}, nil
}
