package ingest

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evapp/ev-backend/internal/models"
	"github.com/evapp/ev-backend/internal/store"
)

// StationReporter is the read side of the station store used by the check
// report.
type StationReporter interface {
	Stats(ctx context.Context) (*models.StationStats, error)
	TopCountries(ctx context.Context, n int) ([]models.CountryCount, error)
	PowerDistribution(ctx context.Context) ([]models.PowerBucket, error)
}

type Report struct {
	Tables            []store.TableCount    `json:"tables"`
	Stations          *models.StationStats  `json:"stations"`
	TopCountries      []models.CountryCount `json:"top_countries"`
	PowerDistribution []models.PowerBucket  `json:"power_distribution"`
}

const reportTopCountries = 5

// BuildReport collects the database health report shown by the check command.
func BuildReport(ctx context.Context, tables []store.TableCount, stations StationReporter) (*Report, error) {
	stats, err := stations.Stats(ctx)
	if err != nil {
		return nil, err
	}
	top, err := stations.TopCountries(ctx, reportTopCountries)
	if err != nil {
		return nil, err
	}
	power, err := stations.PowerDistribution(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{Tables: tables, Stations: stats, TopCountries: top, PowerDistribution: power}, nil
}

// CoveragePercent is the share of stations with both coordinates.
func (r *Report) CoveragePercent() float64 {
	if r.Stations == nil || r.Stations.TotalStations == 0 {
		return 0
	}
	return 100 * float64(r.Stations.StationsWithCoordinates) / float64(r.Stations.TotalStations)
}

func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, t := range r.Tables {
		fmt.Fprintf(tw, "%s\t%d\n", t.Table, t.Rows)
	}
	fmt.Fprintln(tw)

	if r.Stations != nil {
		fmt.Fprintf(tw, "Stations with coordinates:\t%d/%d (%.1f%%)\n",
			r.Stations.StationsWithCoordinates, r.Stations.TotalStations, r.CoveragePercent())
		fmt.Fprintf(tw, "Countries covered:\t%d\n", r.Stations.CountriesCovered)
		fmt.Fprintf(tw, "Average power:\t%.2f kW\n", r.Stations.AveragePowerKw)
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw, "COUNTRY\tSTATIONS")
	for _, c := range r.TopCountries {
		fmt.Fprintf(tw, "%s\t%d\n", c.Country, c.Count)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "POWER CLASS\tSTATIONS")
	for _, b := range r.PowerDistribution {
		fmt.Fprintf(tw, "%s\t%d\n", b.Category, b.Count)
	}

	err := tw.Flush()
	if err == nil {
		err = cw.err
	}
	return cw.n, err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil && c.err == nil {
		c.err = err
	}
	return n, err
}
