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

package dataset

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// LogicalType is an engine-independent column type.
type LogicalType string

const (
	TypeString    LogicalType = "string"
	TypeTimestamp LogicalType = "timestamp"
	TypeDouble    LogicalType = "double"
	TypeFloat     LogicalType = "float"
	TypeLong      LogicalType = "long"
	TypeInteger   LogicalType = "integer"
	TypeBoolean   LogicalType = "boolean"
	TypeDate      LogicalType = "date"
)

// Field is one (name, type, nullable) triple of a schema.
type Field struct {
	Name     string
	Type     LogicalType
	Nullable bool
}

func (f Field) String() string {
	return fmt.Sprintf("StructField(%s,%s,%t)", f.Name, f.Type, f.Nullable)
}

// Schema is an ordered list of fields.
type Schema []Field

// Equal reports exact, ordered equality.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Field looks a column up by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the column names as a set.
func (s Schema) Names() mapset.Set[string] {
	names := mapset.NewSet[string]()
	for _, f := range s {
		names.Add(f.Name)
	}
	return names
}

// Diff compares column names only: missing are in s but not in other,
// extra are in other but not in s. Both are sorted.
func (s Schema) Diff(other Schema) (missing, extra []string) {
	want, got := s.Names(), other.Names()
	missing = want.Difference(got).ToSlice()
	extra = got.Difference(want).ToSlice()
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return "StructType([" + strings.Join(parts, ", ") + "])"
}

// NormalizeType maps a DuckDB type name onto a LogicalType. All timestamp
// precisions and the time-zone-aware variant collapse to TypeTimestamp.
func NormalizeType(engineType string) LogicalType {
	t := strings.ToUpper(strings.TrimSpace(engineType))
	switch {
	case t == "VARCHAR" || t == "TEXT" || t == "STRING" || strings.HasPrefix(t, "VARCHAR("):
		return TypeString
	case strings.HasPrefix(t, "TIMESTAMP"):
		return TypeTimestamp
	case t == "DOUBLE" || t == "FLOAT8":
		return TypeDouble
	case t == "FLOAT" || t == "REAL" || t == "FLOAT4":
		return TypeFloat
	case t == "BIGINT" || t == "INT8":
		return TypeLong
	case t == "INTEGER" || t == "INT" || t == "INT4":
		return TypeInteger
	case t == "BOOLEAN" || t == "BOOL":
		return TypeBoolean
	case t == "DATE":
		return TypeDate
	default:
		return LogicalType(strings.ToLower(t))
	}
}
