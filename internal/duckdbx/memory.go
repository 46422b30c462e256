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

package duckdbx

import (
	"context"
	"strconv"
	"strings"
)

// MemoryStats is one row of pragma_database_size, with sizes in bytes.
type MemoryStats struct {
	DatabaseName string
	DatabaseSize int64
	MemoryUsage  int64
	MemoryLimit  int64
}

// MemoryStats reports PRAGMA database_size for every attached database.
func (s *Session) MemoryStats(ctx context.Context) ([]MemoryStats, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT database_name, database_size, memory_usage, memory_limit FROM pragma_database_size()")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ret []MemoryStats
	for rows.Next() {
		var name, size, usage, limit string
		if err := rows.Scan(&name, &size, &usage, &limit); err != nil {
			return nil, err
		}
		ret = append(ret, MemoryStats{
			DatabaseName: name,
			DatabaseSize: parseSize(size),
			MemoryUsage:  parseSize(usage),
			MemoryLimit:  parseSize(limit),
		})
	}
	return ret, rows.Err()
}

// Parse strings like "0 bytes", "1.2 MiB", "3.1 GiB" into int64 bytes.
func parseSize(sizeStr string) int64 {
	parts := strings.Fields(sizeStr)
	if len(parts) == 0 {
		return 0
	}

	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return int64(value)
	}

	switch strings.ToLower(parts[1]) {
	case "bytes", "byte":
		return int64(value)
	case "kib":
		return int64(value * 1024)
	case "mib":
		return int64(value * 1024 * 1024)
	case "gib":
		return int64(value * 1024 * 1024 * 1024)
	case "tib":
		return int64(value * 1024 * 1024 * 1024 * 1024)
	case "pib":
		return int64(value * 1024 * 1024 * 1024 * 1024 * 1024)
	default:
		return 0
	}
}
