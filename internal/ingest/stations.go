package ingest

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/metrics"
	"github.com/evapp/ev-backend/internal/models"
	"github.com/evapp/ev-backend/internal/store"
)

const (
	DefaultMaxRows   = 100000
	DefaultBatchSize = 1000
	sampleSeed       = 42
)

// StationWriter is the part of the station store the appender writes through.
type StationWriter interface {
	ExistingStationIDs(ctx context.Context) (map[string]struct{}, error)
	InsertStations(ctx context.Context, batch []models.Station) (int, []*store.RowError, error)
}

type AppendOptions struct {
	// MaxRows keeps the first MaxRows rows of the file. Zero means DefaultMaxRows.
	MaxRows int
	// SampleSize, when positive, replaces MaxRows with a reproducible random
	// sample of that many rows.
	SampleSize int
	BatchSize  int
}

type AppendResult struct {
	RowsRead   int `json:"rows_read"`
	Selected   int `json:"selected"`
	MissingID  int `json:"missing_id"`
	Duplicates int `json:"duplicates"`
	Inserted   int `json:"inserted"`
	Failed     int `json:"failed"`
}

// MapStation converts a CSV record into a station. Columns are matched in
// order of preference, e.g. "id" before "station_id".
func MapStation(rec Record) models.Station {
	st := models.Station{
		StationID:    rec.String("id", "station_id"),
		Name:         rec.String("name"),
		Latitude:     rec.Float("latitude", "lat"),
		Longitude:    rec.Float("longitude", "lon"),
		City:         rec.String("city"),
		Country:      rec.String("country_code", "country"),
		PowerClassKw: rec.Float("power_kw", "power_class_kw"),
		Connectors:   rec.String("power_class", "connector_types"),
	}

	var parts []string
	for _, col := range []string{"name", "city", "state_province"} {
		if v := rec.String(col); v != nil {
			parts = append(parts, *v)
		}
	}
	if len(parts) > 0 {
		address := strings.Join(parts, ", ")
		st.Address = &address
	}

	return st
}

// StationAppender adds stations from a CSV export without touching stations
// that are already stored.
type StationAppender struct {
	store StationWriter
}

func NewStationAppender(store StationWriter) *StationAppender {
	return &StationAppender{store: store}
}

func selectRows(records []Record, opts AppendOptions) []Record {
	if opts.SampleSize > 0 {
		if len(records) <= opts.SampleSize {
			return records
		}
		rng := rand.New(rand.NewPCG(sampleSeed, sampleSeed))
		picked := rng.Perm(len(records))[:opts.SampleSize]
		sample := make([]Record, 0, opts.SampleSize)
		for _, i := range picked {
			sample = append(sample, records[i])
		}
		return sample
	}

	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if len(records) > maxRows {
		return records[:maxRows]
	}
	return records
}

// Append reads a station CSV from r and inserts the stations whose id is not
// stored yet. Rows without an id are skipped, as are repeated ids within the
// file. Rows that fail to insert are logged and counted.
func (a *StationAppender) Append(ctx context.Context, r io.Reader, opts AppendOptions) (*AppendResult, error) {
	table, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	if !table.hasColumn("id") && !table.hasColumn("station_id") {
		return nil, fmt.Errorf("station csv has no id or station_id column (columns: %s)", strings.Join(table.Columns, ", "))
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows := selectRows(table.Records, opts)
	res := &AppendResult{RowsRead: len(table.Records), Selected: len(rows)}
	log.Info().
		Int("rows_read", res.RowsRead).
		Int("selected", res.Selected).
		Str("encoding", table.Encoding).
		Strs("columns", table.Columns).
		Msg("Read station CSV")

	existing, err := a.store.ExistingStationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading existing station ids: %w", err)
	}
	if existing == nil {
		existing = map[string]struct{}{}
	}
	if len(existing) > 0 {
		log.Info().Int("existing", len(existing)).Msg("Found existing station ids")
	}

	fresh := make([]models.Station, 0, len(rows))
	for _, rec := range rows {
		st := MapStation(rec)
		if st.StationID == nil {
			res.MissingID++
			continue
		}
		if _, ok := existing[*st.StationID]; ok {
			res.Duplicates++
			continue
		}
		existing[*st.StationID] = struct{}{}
		fresh = append(fresh, st)
	}
	metrics.AddIngested("stations", "skipped", res.MissingID+res.Duplicates)

	if len(fresh) == 0 {
		log.Info().Msg("No new stations to insert")
		return res, nil
	}

	bar := newProgress(len(fresh), "Inserting stations")
	for start := 0; start < len(fresh); start += batchSize {
		batch := fresh[start:min(start+batchSize, len(fresh))]

		inserted, failed, err := a.store.InsertStations(ctx, batch)
		res.Inserted += inserted
		res.Failed += len(failed)
		metrics.AddIngested("stations", "inserted", inserted)
		metrics.AddIngested("stations", "failed", len(failed))
		for _, f := range failed {
			log.Warn().Err(f.Err).Str("station_id", *f.Station.StationID).Msg("Failed to insert station")
		}
		if err != nil {
			_ = bar.Finish()
			return res, fmt.Errorf("inserting station batch: %w", err)
		}
		_ = bar.Add(len(batch))

		log.Debug().Int("inserted_so_far", res.Inserted).Msg("Station batch completed")
	}
	_ = bar.Finish()

	log.Info().
		Int("inserted", res.Inserted).
		Int("failed", res.Failed).
		Int("duplicates", res.Duplicates).
		Int("missing_id", res.MissingID).
		Msg("Station append finished")
	return res, nil
}
