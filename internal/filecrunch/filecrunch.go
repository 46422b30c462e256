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

// Package filecrunch reads Parquet footers without going through the query
// engine.
package filecrunch

import (
	"fmt"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/cardinalhq/lakeverify/internal/dataset"
)

type FileHandle struct {
	File        *os.File
	Size        int64
	ParquetFile *parquet.File
}

// Column is one leaf of the footer schema.
type Column struct {
	Name     string
	Physical string
	Logical  string
	Optional bool
}

func (fh *FileHandle) Close() error {
	return fh.File.Close()
}

// LoadSchemaForFile opens filename and parses its footer.
func LoadSchemaForFile(filename string) (*FileHandle, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet file %s: %w", filename, err)
	}
	return &FileHandle{File: f, Size: stat.Size(), ParquetFile: pf}, nil
}

func (fh *FileHandle) NumRows() int64 {
	return fh.ParquetFile.NumRows()
}

func (fh *FileHandle) NumRowGroups() int {
	return len(fh.ParquetFile.RowGroups())
}

// Columns lists the leaf columns in file order.
func (fh *FileHandle) Columns() []Column {
	var cols []Column
	for _, el := range fh.ParquetFile.Metadata().Schema {
		if el.Type == nil {
			continue
		}
		c := Column{
			Name:     el.Name,
			Physical: el.Type.String(),
			Optional: el.RepetitionType != nil && *el.RepetitionType == format.Optional,
		}
		if el.LogicalType != nil {
			c.Logical = el.LogicalType.String()
		}
		cols = append(cols, c)
	}
	return cols
}

// Schema maps the footer onto the engine-independent schema the checks
// compare against.
func (fh *FileHandle) Schema() dataset.Schema {
	cols := fh.Columns()
	schema := make(dataset.Schema, len(cols))
	for i, c := range cols {
		schema[i] = dataset.Field{Name: c.Name, Type: logicalType(c), Nullable: c.Optional}
	}
	return schema
}

func logicalType(c Column) dataset.LogicalType {
	logical := strings.ToUpper(c.Logical)
	switch {
	case strings.HasPrefix(logical, "TIMESTAMP"):
		return dataset.TypeTimestamp
	case strings.HasPrefix(logical, "STRING"):
		return dataset.TypeString
	case strings.HasPrefix(logical, "DATE"):
		return dataset.TypeDate
	}
	switch c.Physical {
	case "DOUBLE":
		return dataset.TypeDouble
	case "FLOAT":
		return dataset.TypeFloat
	case "INT64":
		return dataset.TypeLong
	case "INT32":
		return dataset.TypeInteger
	case "BOOLEAN":
		return dataset.TypeBoolean
	case "BYTE_ARRAY":
		return "binary"
	}
	return dataset.LogicalType(strings.ToLower(c.Physical))
}
