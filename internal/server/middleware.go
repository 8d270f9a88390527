package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// requestLogger attaches a request-scoped zerolog logger carrying the request
// id and writes one access log line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		logger := log.With().Str("request_id", reqID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func observeMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// cors allows the configured origins, or any origin when the list holds "*".
func cors(allowed []string) gin.HandlerFunc {
	anyOrigin := slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (anyOrigin || slices.Contains(allowed, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")

			if c.Request.Method == http.MethodOptions {
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				reqHeaders := c.GetHeader("Access-Control-Request-Headers")
				if reqHeaders == "" {
					reqHeaders = "Content-Type, Authorization"
				}
				c.Header("Access-Control-Allow-Headers", reqHeaders)
				c.Header("Access-Control-Max-Age", strconv.Itoa(600))
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		zerolog.Ctx(c.Request.Context()).Error().
			Interface("panic", rec).
			Str("path", c.Request.URL.Path).
			Msg("Panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, detail("Internal Server Error"))
	})
}

func detail(msg string) gin.H {
	return gin.H{"detail": msg}
}

// queryParams flattens the request query to its first values.
func queryParams(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = strings.TrimSpace(v[0])
		}
	}
	return params
}
