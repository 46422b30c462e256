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

package cloudstorage

import (
	"context"
	"fmt"

	"github.com/cardinalhq/lakeverify/internal/dataset"
	"github.com/cardinalhq/lakeverify/internal/duckdbx"
)

// engineLister lists through the query engine's own filesystem layer, so it
// sees exactly what read_parquet will read.
type engineLister struct {
	q dataset.Querier
}

// NewEngineLister lists files with the engine's glob() table function.
func NewEngineLister(q dataset.Querier) Lister {
	return &engineLister{q: q}
}

func (l *engineLister) Glob(ctx context.Context, pattern string) ([]ObjectInfo, error) {
	stmt := fmt.Sprintf("SELECT file FROM glob('%s') ORDER BY file", duckdbx.EscapeSingle(pattern))
	rows, err := l.q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	defer func() { _ = rows.Close() }()

	var out []ObjectInfo
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, ObjectInfo{Name: name})
	}
	return out, rows.Err()
}
