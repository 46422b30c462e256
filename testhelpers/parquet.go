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

package testhelpers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cardinalhq/lakeverify/internal/duckdbx"
)

// SetupTestSession opens an in-memory engine session closed by t.Cleanup.
func SetupTestSession(t *testing.T) *duckdbx.Session {
	t.Helper()

	s, err := duckdbx.Open(context.Background())
	if err != nil {
		t.Fatalf("Failed to open duckdb session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// WriteParquet materializes the result of query into a Parquet file.
func WriteParquet(t *testing.T, s *duckdbx.Session, path, query string) {
	t.Helper()

	stmt := fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET);", query, duckdbx.EscapeSingle(path))
	if _, err := s.Conn().ExecContext(context.Background(), stmt); err != nil {
		t.Fatalf("Failed to write parquet file %s: %v", path, err)
	}
}

// Observation is one row of transformed weather output. Nil fields are
// written as nulls.
type Observation struct {
	StationIDUSAF *string
	StationIDWBAN *string
	Timestamp     *time.Time
	Latitude      *float64
	Longitude     *float64
	Elevation     *float64
	Temperature   *float64
}

func Str(s string) *string        { return &s }
func Float(f float64) *float64    { return &f }
func Time(t time.Time) *time.Time { return &t }

// ObservationAt is a fully populated row at ts with the given temperature.
func ObservationAt(ts time.Time, temperature float64) Observation {
	return Observation{
		StationIDUSAF: Str("010010"),
		StationIDWBAN: Str("99999"),
		Timestamp:     Time(ts),
		Latitude:      Float(70.933),
		Longitude:     Float(-8.667),
		Elevation:     Float(9.0),
		Temperature:   Float(temperature),
	}
}

// ObservationsQuery renders rows as a VALUES query with the expected
// transformed-output column names and types.
func ObservationsQuery(rows []Observation) string {
	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = "(" + strings.Join([]string{
			strLiteral(r.StationIDUSAF),
			strLiteral(r.StationIDWBAN),
			timeLiteral(r.Timestamp),
			floatLiteral(r.Latitude),
			floatLiteral(r.Longitude),
			floatLiteral(r.Elevation),
			floatLiteral(r.Temperature),
		}, ", ") + ")"
	}
	return "SELECT * FROM (VALUES " + strings.Join(values, ", ") +
		`) AS v("station_id_usaf", "station_id_wban", "timestamp", "latitude", "longitude", "elevation", "temperature")`
}

// WriteObservations writes rows to a Parquet file at path.
func WriteObservations(t *testing.T, s *duckdbx.Session, path string, rows []Observation) {
	t.Helper()
	if len(rows) == 0 {
		t.Fatalf("WriteObservations: no rows for %s", path)
	}
	WriteParquet(t, s, path, ObservationsQuery(rows))
}

func strLiteral(v *string) string {
	if v == nil {
		return "CAST(NULL AS VARCHAR)"
	}
	return "CAST('" + duckdbx.EscapeSingle(*v) + "' AS VARCHAR)"
}

func timeLiteral(v *time.Time) string {
	if v == nil {
		return "CAST(NULL AS TIMESTAMP)"
	}
	return "CAST('" + v.UTC().Format("2006-01-02 15:04:05") + "' AS TIMESTAMP)"
}

func floatLiteral(v *float64) string {
	if v == nil {
		return "CAST(NULL AS DOUBLE)"
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "CAST('" + strconv.FormatFloat(*v, 'g', -1, 64) + "' AS DOUBLE)"
	}
	return "CAST(" + strconv.FormatFloat(*v, 'g', -1, 64) + " AS DOUBLE)"
}
