package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/models"
)

const stationColumns = `id, station_id, name, latitude, longitude, address, city, country,
	power_class_kw, connectors, created_at`

// StationStore reads and writes the stations table.
type StationStore struct {
	db *sql.DB
}

func NewStationStore(db *sql.DB) *StationStore {
	return &StationStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (models.Station, error) {
	var s models.Station
	err := row.Scan(
		&s.ID,
		&s.StationID,
		&s.Name,
		&s.Latitude,
		&s.Longitude,
		&s.Address,
		&s.City,
		&s.Country,
		&s.PowerClassKw,
		&s.Connectors,
		&s.CreatedAt,
	)
	return s, err
}

func (s *StationStore) queryStations(ctx context.Context, query string, args ...any) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]models.Station, 0)
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// ListStationsWithCoordinates returns every station with a known location,
// ordered by row id. A non-nil minPowerKw also drops stations whose power
// class is unknown or below it.
func (s *StationStore) ListStationsWithCoordinates(ctx context.Context, minPowerKw *float64) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL`
	var args []any
	if minPowerKw != nil {
		query += ` AND power_class_kw IS NOT NULL AND power_class_kw >= ?`
		args = append(args, *minPowerKw)
	}
	query += ` ORDER BY id`

	stations, err := s.queryStations(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stations with coordinates: %w", err)
	}
	return stations, nil
}

// ListStations returns one page of stations, optionally limited to a country.
func (s *StationStore) ListStations(ctx context.Context, filter models.StationFilter) ([]models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations`
	var args []any
	if filter.Country != nil {
		query += ` WHERE country = ?`
		args = append(args, *filter.Country)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Skip)

	stations, err := s.queryStations(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	return stations, nil
}

func (s *StationStore) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = ?`, id)
	st, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting station %d: %w", id, err)
	}
	return &st, nil
}

// Count returns the number of stored stations.
func (s *StationStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting stations: %w", err)
	}
	return n, nil
}

// Stats summarises the stations table. The average power only considers
// stations with a known country and a known, non-zero power class and is
// rounded to two decimals.
func (s *StationStore) Stats(ctx context.Context) (*models.StationStats, error) {
	var (
		stats models.StationStats
		avg   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE latitude IS NOT NULL AND longitude IS NOT NULL),
			COUNT(DISTINCT country),
			AVG(power_class_kw) FILTER (WHERE country IS NOT NULL AND power_class_kw <> 0)
		FROM stations
	`).Scan(&stats.TotalStations, &stats.StationsWithCoordinates, &stats.CountriesCovered, &avg)
	if err != nil {
		return nil, fmt.Errorf("computing station stats: %w", err)
	}
	if avg.Valid {
		stats.AveragePowerKw = math.Round(avg.Float64*100) / 100
	}
	return &stats, nil
}

// TopCountries returns the n countries with the most stations.
func (s *StationStore) TopCountries(ctx context.Context, n int) ([]models.CountryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT country, COUNT(*) AS n
		FROM stations
		WHERE country IS NOT NULL
		GROUP BY country
		ORDER BY n DESC, country
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("counting stations per country: %w", err)
	}
	defer rows.Close()

	counts := make([]models.CountryCount, 0, n)
	for rows.Next() {
		var c models.CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Power class bucket names used by PowerDistribution.
const (
	PowerSlow      = "Slow (<50kW)"
	PowerFast      = "Fast (50-150kW)"
	PowerUltraFast = "Ultra-Fast (>150kW)"
)

// PowerDistribution buckets stations with a known power class into slow, fast
// and ultra-fast chargers.
func (s *StationStore) PowerDistribution(ctx context.Context) ([]models.PowerBucket, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT category, COUNT(*) FROM (
			SELECT CASE
				WHEN power_class_kw < 50 THEN '%s'
				WHEN power_class_kw <= 150 THEN '%s'
				ELSE '%s'
			END AS category
			FROM stations
			WHERE power_class_kw IS NOT NULL
		) AS bucketed
		GROUP BY category
	`, PowerSlow, PowerFast, PowerUltraFast))
	if err != nil {
		return nil, fmt.Errorf("computing power distribution: %w", err)
	}
	defer rows.Close()

	found := map[string]int{}
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		found[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buckets := make([]models.PowerBucket, 0, 3)
	for _, category := range []string{PowerSlow, PowerFast, PowerUltraFast} {
		buckets = append(buckets, models.PowerBucket{Category: category, Count: found[category]})
	}
	return buckets, nil
}

// ExistingStationIDs returns the set of external station ids already stored.
func (s *StationStore) ExistingStationIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT station_id FROM stations WHERE station_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("listing station ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

const insertStationSQL = `INSERT INTO stations
	(station_id, name, latitude, longitude, address, city, country, power_class_kw, connectors)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func stationArgs(st models.Station) []any {
	return []any{
		nullable(st.StationID), nullable(st.Name), nullable(st.Latitude), nullable(st.Longitude),
		nullable(st.Address), nullable(st.City), nullable(st.Country), nullable(st.PowerClassKw),
		nullable(st.Connectors),
	}
}

// nullable turns an optional field into a query argument, nil meaning NULL.
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// RowError reports a station that could not be inserted.
type RowError struct {
	Station models.Station
	Err     error
}

func (e *RowError) Error() string {
	id := "<none>"
	if e.Station.StationID != nil {
		id = *e.Station.StationID
	}
	return fmt.Sprintf("inserting station %s: %v", id, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// InsertStations writes batch in a single transaction. When the transaction
// fails the rows are retried one at a time so that only the offending rows are
// lost; those are returned as RowErrors. The returned error is reserved for
// failures that stop the whole batch.
func (s *StationStore) InsertStations(ctx context.Context, batch []models.Station) (int, []*RowError, error) {
	if len(batch) == 0 {
		return 0, nil, nil
	}

	err := s.insertBatch(ctx, batch)
	if err == nil {
		return len(batch), nil, nil
	}
	if ctx.Err() != nil {
		return 0, nil, ctx.Err()
	}

	log.Warn().Err(err).Int("batch_size", len(batch)).Msg("Batch insert failed, retrying row by row")

	inserted := 0
	var failed []*RowError
	for _, st := range batch {
		if _, err := s.db.ExecContext(ctx, insertStationSQL, stationArgs(st)...); err != nil {
			if ctx.Err() != nil {
				return inserted, failed, ctx.Err()
			}
			failed = append(failed, &RowError{Station: st, Err: err})
			continue
		}
		inserted++
	}
	return inserted, failed, nil
}

func (s *StationStore) insertBatch(ctx context.Context, batch []models.Station) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertStationSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, st := range batch {
		if _, err := stmt.ExecContext(ctx, stationArgs(st)...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}
