package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evapp/ev-backend/internal/models"
)

const vehicleColumns = `id, model_name, manufacturer, battery_capacity_kwh, range_km,
	charging_power_kw, fast_charging_support, release_year, vehicle_type, price_usd, created_at`

// VehicleStore reads and writes the ev_models table.
type VehicleStore struct {
	db *sql.DB
}

func NewVehicleStore(db *sql.DB) *VehicleStore {
	return &VehicleStore{db: db}
}

func scanVehicle(row rowScanner) (models.EVModel, error) {
	var v models.EVModel
	err := row.Scan(
		&v.ID,
		&v.ModelName,
		&v.Manufacturer,
		&v.BatteryCapacityKwh,
		&v.RangeKm,
		&v.ChargingPowerKw,
		&v.FastChargingSupport,
		&v.ReleaseYear,
		&v.VehicleType,
		&v.PriceUSD,
		&v.CreatedAt,
	)
	return v, err
}

// ListVehicles returns one page of vehicle models. The manufacturer filter is
// a case-insensitive substring match.
func (s *VehicleStore) ListVehicles(ctx context.Context, filter models.VehicleFilter) ([]models.EVModel, error) {
	query := `SELECT ` + vehicleColumns + ` FROM ev_models`
	var args []any
	if filter.Manufacturer != nil {
		query += ` WHERE manufacturer ILIKE '%' || ? || '%'`
		args = append(args, *filter.Manufacturer)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]models.EVModel, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("listing vehicles: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (s *VehicleStore) GetVehicle(ctx context.Context, id int64) (*models.EVModel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM ev_models WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting vehicle %d: %w", id, err)
	}
	return &v, nil
}

func (s *VehicleStore) Stats(ctx context.Context) (*models.VehicleStats, error) {
	var stats models.VehicleStats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT manufacturer) FROM ev_models`).
		Scan(&stats.TotalVehicles, &stats.Manufacturers)
	if err != nil {
		return nil, fmt.Errorf("computing vehicle stats: %w", err)
	}
	stats.Message = fmt.Sprintf("Found %d EV models from %d manufacturers", stats.TotalVehicles, stats.Manufacturers)
	return &stats, nil
}

// DeleteVehicles empties the ev_models table.
func (s *VehicleStore) DeleteVehicles(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ev_models`); err != nil {
		return fmt.Errorf("deleting vehicles: %w", err)
	}
	return nil
}

// InsertVehicles writes batch in one transaction; any failing row aborts the
// whole batch.
func (s *VehicleStore) InsertVehicles(ctx context.Context, batch []models.EVModel) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("inserting vehicles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ev_models
		(model_name, manufacturer, battery_capacity_kwh, range_km, charging_power_kw,
		 fast_charging_support, release_year, vehicle_type, price_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("inserting vehicles: %w", err)
	}
	defer stmt.Close()

	for _, v := range batch {
		_, err := stmt.ExecContext(ctx,
			nullable(v.ModelName),
			nullable(v.Manufacturer),
			nullable(v.BatteryCapacityKwh),
			nullable(v.RangeKm),
			nullable(v.ChargingPowerKw),
			nullable(v.FastChargingSupport),
			nullable(v.ReleaseYear),
			nullable(v.VehicleType),
			nullable(v.PriceUSD),
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("inserting vehicle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing vehicles: %w", err)
	}
	return len(batch), nil
}
