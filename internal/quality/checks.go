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

// Package quality holds the acceptance checks run against the transformed
// weather output and the runner that executes them.
package quality

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardinalhq/lakeverify/internal/cloudstorage"
	"github.com/cardinalhq/lakeverify/internal/dataset"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
)

// Check names, as reported in results.
const (
	CheckNamePathExists    = "data_path_exists"
	CheckNameSchema        = "schema_matches"
	CheckNameNotNull       = "no_null_key_columns"
	CheckNamePartitionYear = "data_filtered_by_year"
	CheckNameRange         = "temperature_range"
)

// Table is the read-only view of the data the checks query.
type Table interface {
	Schema(ctx context.Context) (dataset.Schema, error)
	NullCount(ctx context.Context, column string) (int64, error)
	DistinctYears(ctx context.Context, column string) (dataset.Years, error)
	MinMax(ctx context.Context, column string) (dataset.MinMax, error)
}

// CheckPathExists requires at least one file with extension ext directly
// under loc.
func CheckPathExists(ctx context.Context, lister cloudstorage.Lister, loc storagepath.Location, ext string) error {
	files, err := lister.Glob(ctx, loc.Glob(ext))
	if err != nil {
		return &EnvironmentError{Op: "list", Path: loc.String(), Err: err}
	}
	if len(files) == 0 {
		return failf(CheckNamePathExists, "", ">0", 0,
			"no %s files found in %s: count=0", strings.TrimPrefix(ext, "."), loc)
	}
	return nil
}

// CheckSchema requires the table schema to equal expected exactly, in order.
func CheckSchema(ctx context.Context, t Table, expected dataset.Schema) error {
	got, err := t.Schema(ctx)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if !got.Equal(expected) {
		msg := fmt.Sprintf("unexpected schema. expected: %s. got: %s", expected, got)
		missing, extra := expected.Diff(got)
		if len(missing) > 0 {
			msg += fmt.Sprintf(". missing columns: %v", missing)
		}
		if len(extra) > 0 {
			msg += fmt.Sprintf(". unexpected columns: %v", extra)
		}
		return failf(CheckNameSchema, "", expected, got, "%s", msg)
	}
	return nil
}

// CheckNotNull requires column to have no null values.
func CheckNotNull(ctx context.Context, t Table, column string) error {
	n, err := t.NullCount(ctx, column)
	if err != nil {
		return err
	}
	if n != 0 {
		return failf(CheckNameNotNull, column, int64(0), n,
			"column '%s' contains %d null values", column, n)
	}
	return nil
}

// CheckPartitionYear requires every timestamp in column to fall in year.
func CheckPartitionYear(ctx context.Context, t Table, column string, year int) error {
	years, err := t.DistinctYears(ctx, column)
	if err != nil {
		return err
	}
	switch {
	case years.Len() == 0:
		return failf(CheckNamePartitionYear, column, year, years,
			"no years found in column '%s'. expected %d", column, year)
	case years.Len() > 1:
		return failf(CheckNamePartitionYear, column, year, years,
			"found multiple years: years_found=%s. expected only %d", years, year)
	case years.HasNull:
		return failf(CheckNamePartitionYear, column, year, years,
			"wrong year found: null. expected: %d", year)
	case years.Values[0] != int64(year):
		return failf(CheckNamePartitionYear, column, year, years,
			"wrong year found: %d. expected: %d", years.Values[0], year)
	}
	return nil
}

// CheckRange requires lo <= min(column) and max(column) <= hi.
func CheckRange(ctx context.Context, t Table, column string, lo, hi float64) error {
	mm, err := t.MinMax(ctx, column)
	if err != nil {
		return err
	}
	if !mm.Valid {
		return failf(CheckNameRange, column, [2]float64{lo, hi}, nil,
			"column '%s' has no values to range-check", column)
	}
	// Negated comparisons so a NaN extreme fails.
	if !(mm.Min >= lo) {
		return failf(CheckNameRange, column, lo, mm.Min,
			"unexpected minimum %s: %v < %v", column, mm.Min, lo)
	}
	if !(mm.Max <= hi) {
		return failf(CheckNameRange, column, hi, mm.Max,
			"unexpected maximum %s: %v > %v", column, mm.Max, hi)
	}
	return nil
}
