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

package quality

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeverify/internal/cloudstorage"
	"github.com/cardinalhq/lakeverify/internal/dataset"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
	"github.com/cardinalhq/lakeverify/testhelpers"
)

var (
	jan2023 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	dec2022 = time.Date(2022, 12, 31, 23, 0, 0, 0, time.UTC)
)

func loadRows(t *testing.T, rows ...testhelpers.Observation) *dataset.Table {
	t.Helper()
	ctx := context.Background()
	s := testhelpers.SetupTestSession(t)
	path := filepath.Join(t.TempDir(), "part-00000.parquet")
	testhelpers.WriteObservations(t, s, path, rows)

	table, err := dataset.Load(ctx, s.Conn(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close(ctx) })
	return table
}

func requireAssertion(t *testing.T, err error) *AssertionError {
	t.Helper()
	require.Error(t, err)
	var ae *AssertionError
	require.True(t, errors.As(err, &ae), "expected assertion error, got %T: %v", err, err)
	return ae
}

func TestCheckPathExists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	loc, err := storagepath.Parse(dir)
	require.NoError(t, err)
	lister := cloudstorage.NewFileLister()

	ae := requireAssertion(t, CheckPathExists(ctx, lister, loc, "parquet"))
	require.Equal(t, CheckNamePathExists, ae.Check)
	require.Contains(t, ae.Error(), "count=0")
	require.Contains(t, ae.Error(), dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	requireAssertion(t, CheckPathExists(ctx, lister, loc, "parquet"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "part-00000.parquet"), []byte("x"), 0o644))
	require.NoError(t, CheckPathExists(ctx, lister, loc, ".parquet"))
}

type failingLister struct{}

func (failingLister) Glob(context.Context, string) ([]cloudstorage.ObjectInfo, error) {
	return nil, errors.New("403 forbidden")
}

func TestCheckPathExistsListingError(t *testing.T) {
	loc, err := storagepath.Parse("wasbs://output@acct.blob.core.windows.net/data/")
	require.NoError(t, err)

	err = CheckPathExists(context.Background(), failingLister{}, loc, "parquet")
	require.Error(t, err)
	require.False(t, IsAssertion(err))
	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, "list", envErr.Op)
	require.Contains(t, err.Error(), "403 forbidden")
}

func TestCheckSchema(t *testing.T) {
	table := loadRows(t, testhelpers.ObservationAt(jan2023, 1))
	require.NoError(t, CheckSchema(context.Background(), table, ExpectedSchema()))
}

func TestCheckSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	s := testhelpers.SetupTestSession(t)
	path := filepath.Join(t.TempDir(), "data.parquet")
	// temperature stored as text, elevation missing
	testhelpers.WriteParquet(t, s, path, `SELECT '010010' AS station_id_usaf, '99999' AS station_id_wban,
		TIMESTAMP '2023-01-01 00:00:00' AS "timestamp", 1.0::DOUBLE AS latitude, 2.0::DOUBLE AS longitude,
		'12.5' AS temperature`)
	table, err := dataset.Load(ctx, s.Conn(), path)
	require.NoError(t, err)

	ae := requireAssertion(t, CheckSchema(ctx, table, ExpectedSchema()))
	require.Equal(t, CheckNameSchema, ae.Check)
	require.Contains(t, ae.Error(), "unexpected schema. expected: StructType([")
	require.Contains(t, ae.Error(), "StructField(temperature,string,true)")
	require.Contains(t, ae.Error(), "missing columns: [elevation]")
	require.NotContains(t, ae.Error(), "unexpected columns")
}

func TestCheckSchemaColumnOrder(t *testing.T) {
	ctx := context.Background()
	s := testhelpers.SetupTestSession(t)
	path := filepath.Join(t.TempDir(), "data.parquet")
	q := "SELECT station_id_wban, station_id_usaf, \"timestamp\", latitude, longitude, elevation, temperature FROM (" +
		testhelpers.ObservationsQuery([]testhelpers.Observation{testhelpers.ObservationAt(jan2023, 1)}) + ")"
	testhelpers.WriteParquet(t, s, path, q)
	table, err := dataset.Load(ctx, s.Conn(), path)
	require.NoError(t, err)

	requireAssertion(t, CheckSchema(ctx, table, ExpectedSchema()))
}

func TestCheckNotNull(t *testing.T) {
	ctx := context.Background()
	missing := testhelpers.ObservationAt(jan2023.Add(time.Hour), 0)
	missing.Temperature = nil
	table := loadRows(t, testhelpers.ObservationAt(jan2023, 4.5), missing)

	require.NoError(t, CheckNotNull(ctx, table, "station_id_usaf"))
	require.NoError(t, CheckNotNull(ctx, table, "timestamp"))

	ae := requireAssertion(t, CheckNotNull(ctx, table, "temperature"))
	require.Equal(t, CheckNameNotNull, ae.Check)
	require.Equal(t, "temperature", ae.Column)
	require.Equal(t, int64(1), ae.Observed)
	require.Equal(t, "column 'temperature' contains 1 null values", ae.Error())
}

func TestCheckNotNullUnknownColumn(t *testing.T) {
	table := loadRows(t, testhelpers.ObservationAt(jan2023, 4.5))
	err := CheckNotNull(context.Background(), table, "humidity")
	require.Error(t, err)
	require.False(t, IsAssertion(err))
}

func TestCheckPartitionYear(t *testing.T) {
	ctx := context.Background()

	t.Run("single expected year", func(t *testing.T) {
		table := loadRows(t, testhelpers.ObservationAt(jan2023, 1), testhelpers.ObservationAt(jan2023.AddDate(0, 11, 30), 2))
		require.NoError(t, CheckPartitionYear(ctx, table, "timestamp", 2023))
	})

	t.Run("multiple years", func(t *testing.T) {
		table := loadRows(t, testhelpers.ObservationAt(dec2022, 1), testhelpers.ObservationAt(jan2023, 2))
		ae := requireAssertion(t, CheckPartitionYear(ctx, table, "timestamp", 2023))
		require.Equal(t, CheckNamePartitionYear, ae.Check)
		require.Contains(t, ae.Error(), "years_found=[2022 2023]")
	})

	t.Run("wrong year", func(t *testing.T) {
		table := loadRows(t, testhelpers.ObservationAt(dec2022, 1))
		ae := requireAssertion(t, CheckPartitionYear(ctx, table, "timestamp", 2023))
		require.Equal(t, "wrong year found: 2022. expected: 2023", ae.Error())
	})

	t.Run("null year alongside expected", func(t *testing.T) {
		missing := testhelpers.ObservationAt(jan2023, 1)
		missing.Timestamp = nil
		table := loadRows(t, testhelpers.ObservationAt(jan2023, 1), missing)
		ae := requireAssertion(t, CheckPartitionYear(ctx, table, "timestamp", 2023))
		require.Contains(t, ae.Error(), "years_found=[2023 null]")
	})
}

type fakeTable struct {
	schema dataset.Schema
	nulls  int64
	years  dataset.Years
	mm     dataset.MinMax
	err    error
}

func (f fakeTable) Schema(context.Context) (dataset.Schema, error) { return f.schema, f.err }
func (f fakeTable) NullCount(context.Context, string) (int64, error) {
	return f.nulls, f.err
}
func (f fakeTable) DistinctYears(context.Context, string) (dataset.Years, error) {
	return f.years, f.err
}
func (f fakeTable) MinMax(context.Context, string) (dataset.MinMax, error) { return f.mm, f.err }

func TestCheckPartitionYearEdgeCases(t *testing.T) {
	ctx := context.Background()

	ae := requireAssertion(t, CheckPartitionYear(ctx, fakeTable{}, "timestamp", 2023))
	require.Contains(t, ae.Error(), "no years found")

	ae = requireAssertion(t, CheckPartitionYear(ctx, fakeTable{years: dataset.Years{HasNull: true}}, "timestamp", 2023))
	require.Equal(t, "wrong year found: null. expected: 2023", ae.Error())

	err := CheckPartitionYear(ctx, fakeTable{err: errors.New("boom")}, "timestamp", 2023)
	require.Error(t, err)
	require.False(t, IsAssertion(err))
}

func TestCheckRange(t *testing.T) {
	ctx := context.Background()

	table := loadRows(t, testhelpers.ObservationAt(jan2023, -100), testhelpers.ObservationAt(jan2023, 100))
	require.NoError(t, CheckRange(ctx, table, "temperature", -100, 100))

	table = loadRows(t, testhelpers.ObservationAt(jan2023, -100.5), testhelpers.ObservationAt(jan2023, 12))
	ae := requireAssertion(t, CheckRange(ctx, table, "temperature", -100, 100))
	require.Equal(t, CheckNameRange, ae.Check)
	require.Equal(t, "unexpected minimum temperature: -100.5 < -100", ae.Error())

	table = loadRows(t, testhelpers.ObservationAt(jan2023, 12), testhelpers.ObservationAt(jan2023, 150))
	ae = requireAssertion(t, CheckRange(ctx, table, "temperature", -100, 100))
	require.Equal(t, "unexpected maximum temperature: 150 > 100", ae.Error())
}

func TestCheckRangeNaN(t *testing.T) {
	ctx := context.Background()

	table := loadRows(t, testhelpers.ObservationAt(jan2023, 12), testhelpers.ObservationAt(jan2023, math.NaN()))
	ae := requireAssertion(t, CheckRange(ctx, table, "temperature", -100, 100))
	require.Equal(t, "unexpected maximum temperature: NaN > 100", ae.Error())

	ae = requireAssertion(t, CheckRange(ctx, fakeTable{mm: dataset.MinMax{Min: math.NaN(), Max: 20, Valid: true}}, "temperature", -100, 100))
	require.Equal(t, "unexpected minimum temperature: NaN < -100", ae.Error())
}

func TestCheckRangeNoValues(t *testing.T) {
	ae := requireAssertion(t, CheckRange(context.Background(), fakeTable{}, "temperature", -100, 100))
	require.Contains(t, ae.Error(), "no values")
}

func TestEnvironmentError(t *testing.T) {
	inner := errors.New("no such container")
	err := &EnvironmentError{Op: "read parquet from", Path: "az://output/x/", Err: inner}
	require.Equal(t, "read parquet from az://output/x/: no such container", err.Error())
	require.ErrorIs(t, err, inner)
	require.False(t, IsAssertion(err))
}
