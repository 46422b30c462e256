// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package weathergen writes synthetic transformed weather output: hourly
// station readings in Parquet, laid out the way the upstream job writes them.
package weathergen

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/snappy"
	"golang.org/x/sync/errgroup"
)

// Observation is one output row. Timestamps are always present; the other
// columns are optional like the upstream output.
type Observation struct {
	StationIDUSAF *string   `parquet:"station_id_usaf,optional"`
	StationIDWBAN *string   `parquet:"station_id_wban,optional"`
	Timestamp     time.Time `parquet:"timestamp"`
	Latitude      *float64  `parquet:"latitude,optional"`
	Longitude     *float64  `parquet:"longitude,optional"`
	Elevation     *float64  `parquet:"elevation,optional"`
	Temperature   *float64  `parquet:"temperature,optional"`
}

// Options controls the shape of a generated dataset.
type Options struct {
	Year     int
	Stations int
	// Hours is the number of hourly readings per station, starting at
	// January 1st 00:00 UTC.
	Hours int
	Seed  uint64

	// Fault injection, applied to the first station's file.
	NullTemperatures int
	OutOfRange       int
	OffYearRows      int
}

func DefaultOptions() Options {
	return Options{Year: 2023, Stations: 3, Hours: 48, Seed: 1}
}

func (o Options) validate() error {
	switch {
	case o.Year < 1 || o.Year > 9998:
		return fmt.Errorf("year %d out of range", o.Year)
	case o.Stations < 1:
		return errors.New("at least one station is required")
	case o.Hours < 1:
		return errors.New("at least one hour is required")
	case o.Hours > 24*365:
		return fmt.Errorf("hours %d exceeds one year", o.Hours)
	case o.NullTemperatures+o.OutOfRange+o.OffYearRows > o.Hours:
		return errors.New("more injected faults than rows")
	}
	return nil
}

type station struct {
	usaf      string
	wban      string
	latitude  float64
	longitude float64
	elevation float64
}

// Generate writes one file per station into dir and returns their paths.
// A _SUCCESS marker is written last.
func Generate(dir string, opts Options) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	jobID := uuid.NewString()

	// Rows come from one seeded source so output is reproducible; only the
	// encoding runs in parallel.
	paths := make([]string, opts.Stations)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range paths {
		st := newStation(rng, i)
		rows := readings(rng, st, opts.Year, opts.Hours)
		if i == 0 {
			injectFaults(rows, opts)
		}

		path := filepath.Join(dir, fmt.Sprintf("part-%05d-%s-c000.snappy.parquet", i, jobID))
		paths[i] = path
		g.Go(func() error {
			return writeFile(path, rows)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(dir, "_SUCCESS"), nil, 0o644); err != nil {
		return nil, fmt.Errorf("write success marker: %w", err)
	}
	return paths, nil
}

func newStation(rng *rand.Rand, i int) station {
	return station{
		usaf:      fmt.Sprintf("%06d", 10000+i*10),
		wban:      "99999",
		latitude:  round(rng.Float64()*140-70, 3),
		longitude: round(rng.Float64()*360-180, 3),
		elevation: round(rng.Float64()*2500, 1),
	}
}

// readings follows a seasonal and a daily cycle around a latitude-dependent
// mean, with noise.
func readings(rng *rand.Rand, st station, year, hours int) []Observation {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	mean := 25 - math.Abs(st.latitude)*0.5 - st.elevation*0.0065
	season := 12.0
	if st.latitude < 0 {
		season = -season
	}

	rows := make([]Observation, hours)
	for h := range rows {
		ts := start.Add(time.Duration(h) * time.Hour)
		dayOfYear := float64(ts.YearDay())
		temp := mean -
			season*math.Cos(2*math.Pi*(dayOfYear+10)/365) -
			4*math.Cos(2*math.Pi*float64(ts.Hour()-3)/24) +
			rng.NormFloat64()

		rows[h] = Observation{
			StationIDUSAF: ptr(st.usaf),
			StationIDWBAN: ptr(st.wban),
			Timestamp:     ts,
			Latitude:      ptr(st.latitude),
			Longitude:     ptr(st.longitude),
			Elevation:     ptr(st.elevation),
			Temperature:   ptr(clamp(round(temp, 1), -60, 55)),
		}
	}
	return rows
}

// injectFaults overwrites rows from the end of the series so faults never
// overlap each other.
func injectFaults(rows []Observation, opts Options) {
	i := len(rows) - 1
	for n := 0; n < opts.NullTemperatures; n++ {
		rows[i].Temperature = nil
		i--
	}
	for n := 0; n < opts.OutOfRange; n++ {
		rows[i].Temperature = ptr(150.0)
		i--
	}
	for n := 0; n < opts.OffYearRows; n++ {
		rows[i].Timestamp = time.Date(opts.Year-1, time.December, 31, 23, 0, 0, 0, time.UTC)
		i--
	}
}

func writeFile(path string, rows []Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writer := parquet.NewGenericWriter[Observation](f, parquet.Compression(&snappy.Codec{}))
	if _, err := writer.Write(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write rows to %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close writer for %s: %w", path, err)
	}
	return f.Close()
}

func ptr[T any](v T) *T { return &v }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
