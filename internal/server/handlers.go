package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/evapp/ev-backend/internal/api"
	"github.com/evapp/ev-backend/internal/auth"
	"github.com/evapp/ev-backend/internal/models"
	"github.com/evapp/ev-backend/internal/station"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "EV-APP Backend API",
		"version": s.cfg.Version,
		"status":  "running",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) databaseInfo(c *gin.Context) {
	counts, err := s.deps.Tables(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "Error reading table counts")
		return
	}

	tables := make(map[string]int, len(counts))
	for _, tc := range counts {
		tables[tc.Table] = tc.Rows
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (s *Server) register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail("Invalid request body"))
		return
	}

	user, err := s.deps.Auth.Register(c.Request.Context(), req)
	var verr *auth.ValidationError
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, detail("Email already registered"))
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, detail(verr.Error()))
	case err != nil:
		s.internalError(c, err, "Error registering user")
	default:
		c.JSON(http.StatusOK, user)
	}
}

func (s *Server) login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail("Invalid request body"))
		return
	}

	token, err := s.deps.Auth.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, detail("Incorrect email or password"))
	case err != nil:
		s.internalError(c, err, "Error logging in")
	default:
		c.JSON(http.StatusOK, token)
	}
}

// me answers with the account of the bearer token in the Authorization header.
func (s *Server) me(c *gin.Context) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, detail("Not authenticated"))
		return
	}

	user, err := s.deps.Auth.CurrentUser(c.Request.Context(), strings.TrimSpace(token))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, detail("Could not validate credentials"))
	case err != nil:
		s.internalError(c, err, "Error loading current user")
	default:
		c.JSON(http.StatusOK, user)
	}
}

func (s *Server) listStations(c *gin.Context) {
	params := queryParams(c)
	skip, limit, err := api.ParsePaging(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	stations, err := s.deps.Stations.ListStations(c.Request.Context(), models.StationFilter{
		Skip:    skip,
		Limit:   limit,
		Country: api.OptionalString(params, "country"),
	})
	if err != nil {
		s.internalError(c, err, "Error listing stations")
		return
	}
	c.JSON(http.StatusOK, stations)
}

// nearbyStations serves the radius search. A failed search is answered with
// an empty list unless strict errors are enabled.
func (s *Server) nearbyStations(c *gin.Context) {
	query, err := api.ParseNearbyQuery(queryParams(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	stations, err := s.deps.Finder.FindNearby(c.Request.Context(), query)
	if err != nil {
		var unavailable *station.SearchUnavailableError
		if errors.As(err, &unavailable) && !s.cfg.NearbyStrictErrors {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Nearby search failed, answering with no stations")
			c.JSON(http.StatusOK, []models.NearbyStation{})
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Nearby search failed")
		c.JSON(http.StatusServiceUnavailable, detail("Station search unavailable"))
		return
	}
	c.JSON(http.StatusOK, stations)
}

func (s *Server) stationStats(c *gin.Context) {
	stats, err := s.deps.Stations.Stats(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "Error computing station stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getStation(c *gin.Context) {
	id, err := api.ParseID("id", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	st, err := s.deps.Stations.GetStation(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, detail("Station not found"))
		return
	}
	if err != nil {
		s.internalError(c, err, "Error getting station")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) listVehicles(c *gin.Context) {
	params := queryParams(c)
	skip, limit, err := api.ParsePaging(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	vehicles, err := s.deps.Vehicles.ListVehicles(c.Request.Context(), models.VehicleFilter{
		Skip:         skip,
		Limit:        limit,
		Manufacturer: api.OptionalString(params, "manufacturer"),
	})
	if err != nil {
		s.internalError(c, err, "Error listing vehicles")
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (s *Server) getVehicle(c *gin.Context) {
	id, err := api.ParseID("id", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, detail(err.Error()))
		return
	}

	v, err := s.deps.Vehicles.GetVehicle(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, detail("Vehicle not found"))
		return
	}
	if err != nil {
		s.internalError(c, err, "Error getting vehicle")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) vehicleStats(c *gin.Context) {
	stats, err := s.deps.Vehicles.Stats(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "Error computing vehicle stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) internalError(c *gin.Context, err error, msg string) {
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, detail("Internal Server Error"))
}
