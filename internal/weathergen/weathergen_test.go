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

package weathergen

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) []Observation {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	stat, err := f.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(f, stat.Size())
	require.NoError(t, err)
	reader := parquet.NewGenericReader[Observation](pf)
	defer func() { _ = reader.Close() }()

	rows := make([]Observation, pf.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	paths, err := Generate(dir, Options{Year: 2023, Stations: 2, Hours: 30, Seed: 7})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.FileExists(t, filepath.Join(dir, "_SUCCESS"))

	for _, p := range paths {
		require.Equal(t, ".parquet", filepath.Ext(p))
		rows := readRows(t, p)
		require.Len(t, rows, 30)
		for _, r := range rows {
			require.Equal(t, 2023, r.Timestamp.UTC().Year())
			require.NotNil(t, r.StationIDUSAF)
			require.NotNil(t, r.Temperature)
			require.GreaterOrEqual(t, *r.Temperature, -60.0)
			require.LessOrEqual(t, *r.Temperature, 55.0)
		}
	}

	first := readRows(t, paths[0])
	second := readRows(t, paths[1])
	require.NotEqual(t, *first[0].StationIDUSAF, *second[0].StationIDUSAF)
}

func TestGenerateFaults(t *testing.T) {
	dir := t.TempDir()
	paths, err := Generate(dir, Options{
		Year: 2023, Stations: 1, Hours: 10, Seed: 1,
		NullTemperatures: 2, OutOfRange: 1, OffYearRows: 3,
	})
	require.NoError(t, err)

	var nulls, hot, offYear int
	for _, r := range readRows(t, paths[0]) {
		switch {
		case r.Temperature == nil:
			nulls++
		case *r.Temperature > 100:
			hot++
		}
		if r.Timestamp.UTC().Year() != 2023 {
			offYear++
		}
	}
	require.Equal(t, 2, nulls)
	require.Equal(t, 1, hot)
	require.Equal(t, 3, offYear)
}

func TestGenerateDeterministic(t *testing.T) {
	opts := Options{Year: 2021, Stations: 1, Hours: 5, Seed: 42}
	a, err := Generate(t.TempDir(), opts)
	require.NoError(t, err)
	b, err := Generate(t.TempDir(), opts)
	require.NoError(t, err)

	ra, rb := readRows(t, a[0]), readRows(t, b[0])
	require.Len(t, rb, len(ra))
	for i := range ra {
		require.Equal(t, *ra[i].Temperature, *rb[i].Temperature)
		require.True(t, ra[i].Timestamp.Equal(rb[i].Timestamp))
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	for name, opts := range map[string]Options{
		"no stations": {Year: 2023, Hours: 1},
		"no hours":    {Year: 2023, Stations: 1},
		"bad year":    {Year: 0, Stations: 1, Hours: 1},
		"too many":    {Year: 2023, Stations: 1, Hours: 2, NullTemperatures: 3},
		"over a year": {Year: 2023, Stations: 1, Hours: 24*365 + 1},
	} {
		_, err := Generate(t.TempDir(), opts)
		require.Error(t, err, name)
	}
}
