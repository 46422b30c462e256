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

// Package dataset exposes a lazy, read-only handle over the Parquet files
// at a storage location. Every method issues one query against the engine.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cardinalhq/lakeverify/internal/duckdbx"
)

// Querier is the subset of *sql.Conn the table needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table is a view over read_parquet(glob). Nothing is materialized.
type Table struct {
	q    Querier
	view string
	glob string
}

// Load creates the view and probes its schema so an unreadable location
// fails here rather than in the first check.
func Load(ctx context.Context, q Querier, glob string) (*Table, error) {
	view := "lakeverify_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	stmt := fmt.Sprintf("CREATE OR REPLACE TEMPORARY VIEW %s AS SELECT * FROM read_parquet('%s');",
		duckdbx.QuoteIdent(view), duckdbx.EscapeSingle(glob))
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("create view over %s: %w", glob, err)
	}

	t := &Table{q: q, view: view, glob: glob}
	if _, err := t.Schema(ctx); err != nil {
		_ = t.Close(ctx)
		return nil, fmt.Errorf("read parquet from %s: %w", glob, err)
	}
	return t, nil
}

// Glob returns the file pattern the table reads.
func (t *Table) Glob() string {
	return t.glob
}

func (t *Table) ident() string {
	return duckdbx.QuoteIdent(t.view)
}

// Schema describes the table's columns in order.
func (t *Table) Schema(ctx context.Context) (Schema, error) {
	rows, err := t.q.QueryContext(ctx, "DESCRIBE SELECT * FROM "+t.ident())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var schema Schema
	values := make([]sql.NullString, len(cols))
	scanArgs := make([]any, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		// column_name, column_type, null, key, default, extra
		schema = append(schema, Field{
			Name:     values[0].String,
			Type:     NormalizeType(values[1].String),
			Nullable: len(values) < 3 || !values[2].Valid || strings.EqualFold(values[2].String, "YES"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schema, nil
}

// RowCount counts all rows.
func (t *Table) RowCount(ctx context.Context) (int64, error) {
	var n int64
	err := t.q.QueryRowContext(ctx, "SELECT count(*) FROM "+t.ident()).Scan(&n)
	return n, err
}

// NullCount counts rows where column is null.
func (t *Table) NullCount(ctx context.Context, column string) (int64, error) {
	var n int64
	stmt := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s IS NULL", t.ident(), duckdbx.QuoteIdent(column))
	if err := t.q.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nulls in %s: %w", column, err)
	}
	return n, nil
}

// Years is the distinct set of calendar years found in a timestamp column.
type Years struct {
	Values []int64
	// HasNull is set when some rows have no timestamp.
	HasNull bool
}

// Len counts distinct years, with null counted as one.
func (y Years) Len() int {
	n := len(y.Values)
	if y.HasNull {
		n++
	}
	return n
}

func (y Years) String() string {
	parts := make([]string, 0, y.Len())
	for _, v := range y.Values {
		parts = append(parts, fmt.Sprint(v))
	}
	if y.HasNull {
		parts = append(parts, "null")
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// DistinctYears returns the sorted distinct UTC years of column.
func (t *Table) DistinctYears(ctx context.Context, column string) (Years, error) {
	stmt := fmt.Sprintf(
		"SELECT DISTINCT CAST(date_part('year', CAST(%s AS TIMESTAMP)) AS BIGINT) AS data_year FROM %s ORDER BY data_year NULLS LAST",
		duckdbx.QuoteIdent(column), t.ident())
	rows, err := t.q.QueryContext(ctx, stmt)
	if err != nil {
		return Years{}, fmt.Errorf("distinct years of %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	var years Years
	for rows.Next() {
		var y sql.NullInt64
		if err := rows.Scan(&y); err != nil {
			return Years{}, err
		}
		if !y.Valid {
			years.HasNull = true
			continue
		}
		years.Values = append(years.Values, y.Int64)
	}
	return years, rows.Err()
}

// MinMax holds the extremes of a numeric column. Valid is false when the
// column has no non-null values.
type MinMax struct {
	Min   float64
	Max   float64
	Valid bool
}

// MinMax computes min and max of column.
func (t *Table) MinMax(ctx context.Context, column string) (MinMax, error) {
	col := duckdbx.QuoteIdent(column)
	stmt := fmt.Sprintf("SELECT min(%s)::DOUBLE, max(%s)::DOUBLE FROM %s", col, col, t.ident())

	var lo, hi sql.NullFloat64
	if err := t.q.QueryRowContext(ctx, stmt).Scan(&lo, &hi); err != nil {
		return MinMax{}, fmt.Errorf("min/max of %s: %w", column, err)
	}
	return MinMax{Min: lo.Float64, Max: hi.Float64, Valid: lo.Valid && hi.Valid}, nil
}

// Close drops the view. The underlying files are untouched.
func (t *Table) Close(ctx context.Context) error {
	_, err := t.q.ExecContext(ctx, "DROP VIEW IF EXISTS "+t.ident())
	return err
}
