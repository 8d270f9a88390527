package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/models"
)

// ErrNotFound is returned when a lookup by id or key matches no row.
var ErrNotFound = models.ErrNotFound

// Open opens the duckdb database at path, creating its directory when needed.
// An empty path opens an in-memory database.
func Open(path string) (*sql.DB, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database %q: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Opened database")

	return db, nil
}

// CreateSchema creates the tables the application needs. It is safe to run on
// an existing database.
func CreateSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS stations_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS stations (
			id BIGINT PRIMARY KEY DEFAULT nextval('stations_id_seq'),
			station_id VARCHAR UNIQUE,
			name VARCHAR,
			latitude DOUBLE,
			longitude DOUBLE,
			address VARCHAR,
			city VARCHAR,
			country VARCHAR,
			power_class_kw DOUBLE,
			connectors VARCHAR,
			created_at TIMESTAMP DEFAULT current_timestamp
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stations_country ON stations(country)`,
		`CREATE SEQUENCE IF NOT EXISTS ev_models_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS ev_models (
			id BIGINT PRIMARY KEY DEFAULT nextval('ev_models_id_seq'),
			model_name VARCHAR,
			manufacturer VARCHAR,
			battery_capacity_kwh DOUBLE,
			range_km DOUBLE,
			charging_power_kw DOUBLE,
			fast_charging_support BOOLEAN,
			release_year INTEGER,
			vehicle_type VARCHAR,
			price_usd DOUBLE,
			created_at TIMESTAMP DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			email VARCHAR NOT NULL UNIQUE,
			hashed_password VARCHAR NOT NULL,
			full_name VARCHAR,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	return nil
}

// Tables lists the tables reported by TableCounts, in display order.
var Tables = []string{"stations", "ev_models", "users"}

// TableCount is the number of rows held by one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// TableCounts returns the row count of every application table.
func TableCounts(ctx context.Context, db *sql.DB) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(Tables))
	for _, table := range Tables {
		var n int
		// table names come from the fixed list above
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
