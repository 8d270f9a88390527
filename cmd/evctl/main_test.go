package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evapp/ev-backend/internal/ingest"
)

const stationsFixture = `id,name,latitude,longitude,city,country_code,power_kw
de-1,Mitte,52.52,13.405,Berlin,DE,22
de-2,Alex,52.5219,13.4132,Berlin,DE,150
fr-1,Paris,48.8566,2.3522,Paris,FR,350
nl-1,Nowhere,,,,NL,
`

const vehiclesFixture = `brand,model,fast_charging_power_kw_dc
Tesla,Model 3,170
Renault,Zoe,0
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CACHE_ENABLE_REDIS", "false")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "ev.duckdb"))
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out := execute(t, "migrate")
	assert.Contains(t, out, "stations: 0 rows")
	assert.Contains(t, out, "ev_models: 0 rows")
	assert.Contains(t, out, "users: 0 rows")
}

func TestIngestAndCheck(t *testing.T) {
	dir := setupEnv(t)
	stationsFile := filepath.Join(dir, "stations.csv")
	require.NoError(t, os.WriteFile(stationsFile, []byte(stationsFixture), 0o644))
	vehiclesFile := filepath.Join(dir, "vehicles.csv")
	require.NoError(t, os.WriteFile(vehiclesFile, []byte(vehiclesFixture), 0o644))

	var res ingest.AppendResult
	require.NoError(t, json.Unmarshal([]byte(execute(t, "ingest", "stations", stationsFile, "--batch-size", "2")), &res))
	assert.Equal(t, 4, res.Inserted)

	require.NoError(t, json.Unmarshal([]byte(execute(t, "ingest", "stations", stationsFile)), &res))
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 4, res.Duplicates)

	var loaded ingest.LoadResult
	require.NoError(t, json.Unmarshal([]byte(execute(t, "ingest", "vehicles", vehiclesFile, "--replace")), &loaded))
	assert.Equal(t, 2, loaded.Inserted)

	report := execute(t, "check")
	assert.Contains(t, report, "3/4 (75.0%)")
	assert.Contains(t, report, "Slow (<50kW)")
	assert.Contains(t, report, "FR")
}

func TestIngestMissingSource(t *testing.T) {
	setupEnv(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ingest", "stations", "does-not-exist.csv"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, ingest.ErrSourceNotFound)
}

func TestIngestStationsRequiresSource(t *testing.T) {
	setupEnv(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ingest", "stations"})
	assert.Error(t, cmd.Execute())
}
