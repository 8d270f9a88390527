// Package server exposes the REST API over HTTP using gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/app"
	"github.com/evapp/ev-backend/internal/auth"
	"github.com/evapp/ev-backend/internal/config"
	"github.com/evapp/ev-backend/internal/models"
	"github.com/evapp/ev-backend/internal/store"
)

type StationService interface {
	models.StationReader
	Stats(ctx context.Context) (*models.StationStats, error)
}

type VehicleService interface {
	ListVehicles(ctx context.Context, filter models.VehicleFilter) ([]models.EVModel, error)
	GetVehicle(ctx context.Context, id int64) (*models.EVModel, error)
	Stats(ctx context.Context) (*models.VehicleStats, error)
}

type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.Token, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// TableCounter reports live row counts for the database-info endpoint.
type TableCounter func(ctx context.Context) ([]store.TableCount, error)

// Dependencies are the services the handlers call into.
type Dependencies struct {
	Finder   models.StationFinder
	Stations StationService
	Vehicles VehicleService
	Auth     AuthService
	Tables   TableCounter
}

type Server struct {
	cfg    *config.Config
	deps   Dependencies
	router *gin.Engine
}

func New(cfg *config.Config, deps Dependencies) *Server {
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, deps: deps}
	s.router = s.routes()
	return s
}

// FromApp builds a server over the services of an assembled application.
func FromApp(a *app.App) *Server {
	return New(a.Config, Dependencies{
		Finder:   a.Finder,
		Stations: a.Stations,
		Vehicles: a.Vehicles,
		Auth:     a.Auth,
		Tables: func(ctx context.Context) ([]store.TableCount, error) {
			return store.TableCounts(ctx, a.DB)
		},
	})
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(), requestLogger(), observeMetrics(), cors(s.cfg.AllowedHosts))

	r.GET("/", s.root)
	r.GET("/health", s.health)
	r.GET("/database-info", s.databaseInfo)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.GET("/me", s.me)

	stations := r.Group("/api/stations")
	stations.GET("", s.listStations)
	stations.GET("/", s.listStations)
	stations.GET("/nearby", s.nearbyStations)
	stations.GET("/stats", s.stationStats)
	stations.GET("/:id", s.getStation)

	vehicles := r.Group("/api/vehicles")
	vehicles.GET("", s.listVehicles)
	vehicles.GET("/", s.listVehicles)
	vehicles.GET("/stats/summary", s.vehicleStats)
	vehicles.GET("/:id", s.getVehicle)

	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// httpServer bounds reading a request and writing its response by the
// configured HTTP timeout.
func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: min(5*time.Second, s.cfg.HTTPTimeout),
		ReadTimeout:       s.cfg.HTTPTimeout,
		WriteTimeout:      s.cfg.HTTPTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := s.httpServer()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
