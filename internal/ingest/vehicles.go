package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/metrics"
	"github.com/evapp/ev-backend/internal/models"
)

// DefaultVehicleFile is the vehicle specification export loaded by default.
const DefaultVehicleFile = "electric_vehicles_spec_2025.csv"

type VehicleWriter interface {
	DeleteVehicles(ctx context.Context) error
	InsertVehicles(ctx context.Context, batch []models.EVModel) (int, error)
}

type LoadOptions struct {
	// Replace empties the table before loading.
	Replace   bool
	BatchSize int
}

type LoadResult struct {
	RowsRead int `json:"rows_read"`
	Inserted int `json:"inserted"`
	Chunks   int `json:"chunks"`
}

// MapVehicle converts a row of the vehicle specification export.
func MapVehicle(rec Record) models.EVModel {
	v := models.EVModel{
		ModelName:           rec.String("model", "model_name", "vehicle_model"),
		Manufacturer:        rec.String("brand", "manufacturer", "make"),
		BatteryCapacityKwh:  rec.Float("battery_capacity_kwh"),
		RangeKm:             rec.Float("range_km"),
		ChargingPowerKw:     rec.Float("fast_charging_power_kw_dc", "charging_power_kw", "charging_speed_kw"),
		FastChargingSupport: rec.Bool("fast_charging_support"),
		ReleaseYear:         rec.Int("release_year", "year"),
		VehicleType:         rec.String("car_body_type", "vehicle_type", "segment"),
		PriceUSD:            rec.Float("price_usd"),
	}
	if v.FastChargingSupport == nil && v.ChargingPowerKw != nil {
		fast := *v.ChargingPowerKw > 0
		v.FastChargingSupport = &fast
	}
	return v
}

type VehicleLoader struct {
	store VehicleWriter
}

func NewVehicleLoader(store VehicleWriter) *VehicleLoader {
	return &VehicleLoader{store: store}
}

// Load inserts every row of the CSV in r in chunks. A failing chunk stops the
// load; chunks already written stay.
func (l *VehicleLoader) Load(ctx context.Context, r io.Reader, opts LoadOptions) (*LoadResult, error) {
	table, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("rows", len(table.Records)).
		Int("columns", len(table.Columns)).
		Str("encoding", table.Encoding).
		Msg("Read vehicle CSV")

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if opts.Replace {
		if err := l.store.DeleteVehicles(ctx); err != nil {
			return nil, err
		}
	}

	res := &LoadResult{RowsRead: len(table.Records)}
	bar := newProgress(len(table.Records), "Loading vehicles")
	defer func() { _ = bar.Finish() }()

	for start := 0; start < len(table.Records); start += batchSize {
		chunk := table.Records[start:min(start+batchSize, len(table.Records))]
		batch := make([]models.EVModel, 0, len(chunk))
		for _, rec := range chunk {
			batch = append(batch, MapVehicle(rec))
		}

		n, err := l.store.InsertVehicles(ctx, batch)
		if err != nil {
			metrics.AddIngested("ev_models", "failed", len(chunk))
			return res, fmt.Errorf("loading vehicle chunk %d: %w", res.Chunks+1, err)
		}
		res.Inserted += n
		res.Chunks++
		metrics.AddIngested("ev_models", "inserted", n)
		_ = bar.Add(len(chunk))
		log.Debug().Int("chunk", res.Chunks).Int("rows", n).Msg("Vehicle chunk ingested")
	}

	log.Info().Int("inserted", res.Inserted).Int("chunks", res.Chunks).Msg("Vehicle load finished")
	return res, nil
}
