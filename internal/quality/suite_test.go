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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeverify/config"
	"github.com/cardinalhq/lakeverify/internal/cloudstorage"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
	"github.com/cardinalhq/lakeverify/internal/weathergen"
	"github.com/cardinalhq/lakeverify/testhelpers"
)

func newLocalSuite(t *testing.T, dir string) (*Suite, func(string, []testhelpers.Observation)) {
	t.Helper()
	s := testhelpers.SetupTestSession(t)
	loc, err := storagepath.Parse(dir)
	require.NoError(t, err)

	cfg := config.DefaultDatasetConfig()
	cfg.Path = dir
	suite := NewSuite(cfg, loc, s, cloudstorage.NewEngineLister(s.Conn()))
	write := func(name string, rows []testhelpers.Observation) {
		testhelpers.WriteObservations(t, s, filepath.Join(dir, name), rows)
	}
	return suite, write
}

func statuses(r *Report) map[string]Status {
	out := map[string]Status{}
	for _, res := range r.Results {
		out[res.Label()] = res.Status
	}
	return out
}

func TestSuiteAllPass(t *testing.T) {
	dir := t.TempDir()
	suite, write := newLocalSuite(t, dir)
	write("part-00000.parquet", []testhelpers.Observation{
		testhelpers.ObservationAt(jan2023, -3.5),
		testhelpers.ObservationAt(jan2023.Add(time.Hour), -2),
	})
	write("part-00001.parquet", []testhelpers.Observation{
		testhelpers.ObservationAt(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), 1.25),
	})

	report := suite.Run(context.Background())
	require.True(t, report.Passed(), "%v", report.Err())
	require.NoError(t, report.Err())
	require.NotEmpty(t, report.RunID)

	require.Equal(t, []string{
		"data_path_exists",
		"schema_matches",
		"no_null_key_columns[station_id_usaf]",
		"no_null_key_columns[timestamp]",
		"no_null_key_columns[temperature]",
		"data_filtered_by_year[timestamp]",
		"temperature_range[temperature]",
	}, labels(report))
	require.Equal(t, 7, report.Counts()[StatusPassed])
}

func labels(r *Report) []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Label()
	}
	return out
}

func TestSuiteIndependentFailures(t *testing.T) {
	dir := t.TempDir()
	suite, write := newLocalSuite(t, dir)
	missing := testhelpers.ObservationAt(jan2023, 0)
	missing.Temperature = nil
	write("part-00000.parquet", []testhelpers.Observation{
		testhelpers.ObservationAt(dec2022, 101),
		testhelpers.ObservationAt(jan2023, 5),
		missing,
	})

	report := suite.Run(context.Background())
	require.False(t, report.Passed())

	got := statuses(report)
	require.Equal(t, StatusPassed, got["data_path_exists"])
	require.Equal(t, StatusPassed, got["schema_matches"])
	require.Equal(t, StatusPassed, got["no_null_key_columns[station_id_usaf]"])
	require.Equal(t, StatusFailed, got["no_null_key_columns[temperature]"])
	require.Equal(t, StatusFailed, got["data_filtered_by_year[timestamp]"])
	require.Equal(t, StatusFailed, got["temperature_range[temperature]"])

	err := report.Err()
	require.Error(t, err)
	require.Contains(t, err.Error(), "column 'temperature' contains 1 null values")
	require.Contains(t, err.Error(), "years_found=[2022 2023]")
	require.Contains(t, err.Error(), "unexpected maximum temperature")
}

func TestSuiteMissingData(t *testing.T) {
	dir := t.TempDir()
	suite, _ := newLocalSuite(t, dir)

	report := suite.Run(context.Background())
	require.False(t, report.Passed())
	require.Len(t, report.Results, 7)

	first := report.Results[0]
	require.Equal(t, CheckNamePathExists, first.Name)
	require.Equal(t, StatusFailed, first.Status)

	for _, res := range report.Results[1:] {
		require.Equal(t, StatusFailed, res.Status, res.Label())
		var envErr *EnvironmentError
		require.True(t, errors.As(res.Err, &envErr), res.Label())
		require.Equal(t, "read parquet from", envErr.Op)
	}
	counts := report.Counts()
	require.Equal(t, 7, counts[StatusFailed])
	require.Equal(t, 0, counts[StatusError])
}

func TestSuiteListingErrorFails(t *testing.T) {
	dir := t.TempDir()
	s := testhelpers.SetupTestSession(t)
	testhelpers.WriteObservations(t, s, filepath.Join(dir, "part-00000.parquet"), []testhelpers.Observation{
		testhelpers.ObservationAt(jan2023, 4.5),
	})
	loc, err := storagepath.Parse(dir)
	require.NoError(t, err)
	cfg := config.DefaultDatasetConfig()
	cfg.Path = dir

	report := NewSuite(cfg, loc, s, failingLister{}).Run(context.Background())
	require.False(t, report.Passed())

	first := report.Results[0]
	require.Equal(t, CheckNamePathExists, first.Name)
	require.Equal(t, StatusFailed, first.Status)
	require.Contains(t, first.Err.Error(), "403 forbidden")

	counts := report.Counts()
	require.Equal(t, 1, counts[StatusFailed])
	require.Equal(t, 6, counts[StatusPassed])
	require.Equal(t, 0, counts[StatusError])
}

func TestClassify(t *testing.T) {
	require.Equal(t, StatusPassed, classify(nil))
	require.Equal(t, StatusFailed, classify(failf("x", "", 1, 2, "bad")))
	require.Equal(t, StatusError, classify(errors.New("boom")))
	require.Equal(t, StatusFailed, classify(&EnvironmentError{Op: "list", Path: "p", Err: errors.New("x")}))
	require.Equal(t, StatusFailed, classify(fmt.Errorf("wrapped: %w", &EnvironmentError{Op: "list", Path: "p", Err: errors.New("x")})))
}

func TestReportErrNilWhenPassed(t *testing.T) {
	r := &Report{Results: []Result{{Name: "a", Status: StatusPassed}}}
	require.True(t, r.Passed())
	require.NoError(t, r.Err())
}

func TestSuiteGeneratedData(t *testing.T) {
	dir := t.TempDir()
	_, err := weathergen.Generate(dir, weathergen.Options{Year: 2023, Stations: 3, Hours: 72, Seed: 3})
	require.NoError(t, err)
	suite, _ := newLocalSuite(t, dir)

	report := suite.Run(context.Background())
	require.True(t, report.Passed(), "%v", report.Err())
}

func TestSuiteGeneratedFaults(t *testing.T) {
	dir := t.TempDir()
	_, err := weathergen.Generate(dir, weathergen.Options{
		Year: 2023, Stations: 2, Hours: 24, Seed: 3,
		NullTemperatures: 1, OffYearRows: 1,
	})
	require.NoError(t, err)
	suite, _ := newLocalSuite(t, dir)

	got := statuses(suite.Run(context.Background()))
	require.Equal(t, StatusPassed, got["schema_matches"])
	require.Equal(t, StatusFailed, got["no_null_key_columns[temperature]"])
	require.Equal(t, StatusFailed, got["data_filtered_by_year[timestamp]"])
	require.Equal(t, StatusPassed, got["temperature_range[temperature]"])
}
