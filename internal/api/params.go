package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evapp/ev-backend/internal/models"
)

// InvalidParameterError reports a query parameter that is missing or malformed.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Name, e.Reason)
}

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

func parseFloat(params map[string]string, name string) (float64, bool, error) {
	raw, ok := params[name]
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, &InvalidParameterError{Name: name, Reason: "must be a number"}
	}
	return v, true, nil
}

func requireFloat(params map[string]string, names ...string) (float64, error) {
	for _, name := range names {
		v, ok, err := parseFloat(params, name)
		if err != nil {
			return 0, err
		}
		if ok {
			return v, nil
		}
	}
	return 0, &InvalidParameterError{Name: names[0], Reason: "is required"}
}

// ParseNearbyQuery reads lat, lng (or lon), radius and min_power. Radius
// defaults to models.DefaultRadiusKm. Coordinates are not range checked.
func ParseNearbyQuery(params map[string]string) (models.NearbyQuery, error) {
	var q models.NearbyQuery

	lat, err := requireFloat(params, "lat")
	if err != nil {
		return q, err
	}
	lng, err := requireFloat(params, "lng", "lon")
	if err != nil {
		return q, err
	}
	q.Origin = models.Coordinate{Latitude: lat, Longitude: lng}

	q.RadiusKm = models.DefaultRadiusKm
	if radius, ok, err := parseFloat(params, "radius"); err != nil {
		return q, err
	} else if ok {
		q.RadiusKm = radius
	}

	if minPower, ok, err := parseFloat(params, "min_power"); err != nil {
		return q, err
	} else if ok {
		q.MinPowerKw = &minPower
	}

	return q, nil
}

func parseInt(params map[string]string, name string, def int) (int, error) {
	raw := strings.TrimSpace(params[name])
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidParameterError{Name: name, Reason: "must be an integer"}
	}
	return v, nil
}

// ParsePaging reads skip and limit. limit is capped at MaxLimit.
func ParsePaging(params map[string]string) (skip, limit int, err error) {
	if skip, err = parseInt(params, "skip", 0); err != nil {
		return 0, 0, err
	}
	if skip < 0 {
		return 0, 0, &InvalidParameterError{Name: "skip", Reason: "must not be negative"}
	}
	if limit, err = parseInt(params, "limit", DefaultLimit); err != nil {
		return 0, 0, err
	}
	if limit < 0 {
		return 0, 0, &InvalidParameterError{Name: "limit", Reason: "must not be negative"}
	}
	return skip, min(limit, MaxLimit), nil
}

// OptionalString returns nil when the parameter is absent or blank.
func OptionalString(params map[string]string, name string) *string {
	v := strings.TrimSpace(params[name])
	if v == "" {
		return nil
	}
	return &v
}

// ParseID parses a positive row id.
func ParseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &InvalidParameterError{Name: name, Reason: "must be a positive integer"}
	}
	return id, nil
}
