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
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/lakeverify/config"
	"github.com/cardinalhq/lakeverify/internal/cloudstorage"
	"github.com/cardinalhq/lakeverify/internal/dataset"
	"github.com/cardinalhq/lakeverify/internal/duckdbx"
	"github.com/cardinalhq/lakeverify/internal/logctx"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
)

// Status is the outcome class of a check.
type Status string

const (
	StatusPassed Status = "passed"
	// StatusFailed means the data disagreed with an expectation or could
	// not be reached.
	StatusFailed Status = "failed"
	// StatusError means the engine raised something unexpected.
	StatusError Status = "error"
)

// Result is the outcome of one check. Column is set for per-column checks.
type Result struct {
	Name     string
	Column   string
	Status   Status
	Err      error
	Duration time.Duration
}

// Label is the check name with its column, if any.
func (r Result) Label() string {
	if r.Column == "" {
		return r.Name
	}
	return r.Name + "[" + r.Column + "]"
}

// Report collects the results of one suite run.
type Report struct {
	RunID   string
	Path    string
	Results []Result
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Status != StatusPassed {
			return false
		}
	}
	return true
}

// Counts returns the number of results per status.
func (r *Report) Counts() map[Status]int {
	counts := map[Status]int{}
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Err aggregates every non-passing result, or returns nil.
func (r *Report) Err() error {
	var errs *multierror.Error
	for _, res := range r.Results {
		if res.Status == StatusPassed {
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", res.Label(), res.Err))
	}
	return errs.ErrorOrNil()
}

// Suite runs the checks against one dataset location. The session is owned
// by the caller; the suite only derives table handles from it.
type Suite struct {
	cfg      config.DatasetConfig
	loc      storagepath.Location
	session  *duckdbx.Session
	lister   cloudstorage.Lister
	expected dataset.Schema
}

// NewSuite prepares a suite for loc using the expected weather schema.
func NewSuite(cfg config.DatasetConfig, loc storagepath.Location, session *duckdbx.Session, lister cloudstorage.Lister) *Suite {
	return &Suite{
		cfg:      cfg,
		loc:      loc,
		session:  session,
		lister:   lister,
		expected: ExpectedSchema(),
	}
}

// Run executes every check in a fixed order. A failing check never stops
// the others; when the table cannot be loaded every table check reports
// the load error.
func (s *Suite) Run(ctx context.Context) *Report {
	report := &Report{RunID: uuid.NewString(), Path: s.loc.String()}
	ctx = logctx.With(ctx, "runID", report.RunID, "path", report.Path)
	logger := logctx.FromContext(ctx)
	logger.Info("Starting validation suite")

	run := func(name, column string, fn func() error) {
		start := time.Now()
		err := fn()
		res := Result{Name: name, Column: column, Status: classify(err), Err: err, Duration: time.Since(start)}
		report.Results = append(report.Results, res)
		recordResult(ctx, name, res.Status, res.Duration)

		switch res.Status {
		case StatusPassed:
			logger.Info("Check passed", "check", res.Label(), "duration", res.Duration)
		case StatusFailed:
			logger.Warn("Check failed", "check", res.Label(), "error", err)
		default:
			logger.Error("Check errored", "check", res.Label(), "error", err)
		}
	}

	run(CheckNamePathExists, "", func() error {
		return CheckPathExists(ctx, s.lister, s.loc, s.cfg.FileExtension)
	})

	var t Table
	table, loadErr := LoadTable(ctx, s.session, s.loc, s.cfg.FileExtension)
	if loadErr == nil {
		t = table
		defer func() {
			if err := table.Close(ctx); err != nil {
				logger.Warn("Failed to drop table view", "error", err)
			}
		}()
	}
	withTable := func(fn func(Table) error) func() error {
		return func() error {
			if loadErr != nil {
				return loadErr
			}
			return fn(t)
		}
	}

	run(CheckNameSchema, "", withTable(func(t Table) error {
		return CheckSchema(ctx, t, s.expected)
	}))
	for _, col := range s.cfg.KeyColumns {
		run(CheckNameNotNull, col, withTable(func(t Table) error {
			return CheckNotNull(ctx, t, col)
		}))
	}
	run(CheckNamePartitionYear, s.cfg.TimestampColumn, withTable(func(t Table) error {
		return CheckPartitionYear(ctx, t, s.cfg.TimestampColumn, s.cfg.ExpectedYear)
	}))
	run(CheckNameRange, s.cfg.TemperatureColumn, withTable(func(t Table) error {
		return CheckRange(ctx, t, s.cfg.TemperatureColumn, s.cfg.TemperatureMin, s.cfg.TemperatureMax)
	}))

	counts := report.Counts()
	logger.Info("Validation suite finished",
		"passed", counts[StatusPassed],
		"failed", counts[StatusFailed],
		"errored", counts[StatusError],
	)
	return report
}

// classify maps a check outcome onto a status. Unreachable data fails the
// check like a violated assertion; only unexpected errors report as error.
func classify(err error) Status {
	var ae *AssertionError
	var envErr *EnvironmentError
	switch {
	case err == nil:
		return StatusPassed
	case errors.As(err, &ae), errors.As(err, &envErr):
		return StatusFailed
	default:
		return StatusError
	}
}
