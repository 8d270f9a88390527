package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/api"
	"github.com/evapp/ev-backend/internal/app"
	"github.com/evapp/ev-backend/internal/config"
	"github.com/evapp/ev-backend/internal/handler"
)

var (
	lambdaStart     = lambda.Start // Allow mocking of lambda.Start in tests
	stationsHandler *handler.StationsHandler
	setupMu         sync.Mutex
)

// setup wires the handler on the first invocation so a cold start without a
// reachable database still answers with an error envelope. A failed setup is
// retried on the next invocation.
func setup(ctx context.Context) (*handler.StationsHandler, error) {
	setupMu.Lock()
	defer setupMu.Unlock()

	if stationsHandler != nil {
		return stationsHandler, nil
	}

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	application, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize stations handler")
		return nil, err
	}
	stationsHandler = handler.NewStationsHandler(application.Finder, application.Stations, cfg.NearbyStrictErrors)
	return stationsHandler, nil
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h, err := setup(ctx)
	if err != nil {
		return api.Error("Service unavailable", http.StatusServiceUnavailable)
	}
	return h.HandleRequest(ctx, request)
}

func main() {
	lambdaStart(handleRequest)
}
