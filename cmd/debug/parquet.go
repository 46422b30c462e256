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

package debug

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakeverify/internal/filecrunch"
	"github.com/cardinalhq/lakeverify/internal/quality"
)

func GetParquetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parquet",
		Short: "Parquet file debugging utilities",
		Long:  `Inspect a single Parquet file without the query engine.`,
	}

	cmd.AddCommand(getParquetSchemaSubCmd())
	cmd.AddCommand(getParquetCatSubCmd())

	return cmd
}

func getParquetSchemaSubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the footer schema and compare it with the expected output schema",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			return runParquetSchema(os.Stdout, filename)
		},
	}

	cmd.Flags().String("file", "", "Parquet file to read")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}

	return cmd
}

func getParquetCatSubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat",
		Short: "Output parquet file contents as JSON lines",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			limit, err := c.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}
			return runParquetCat(os.Stdout, filename, limit)
		},
	}

	cmd.Flags().String("file", "", "Parquet file to read")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
	cmd.Flags().Int("limit", 0, "Maximum number of rows to output (0 for unlimited)")

	return cmd
}

func runParquetSchema(w io.Writer, filename string) error {
	fh, err := filecrunch.LoadSchemaForFile(filename)
	if err != nil {
		return fmt.Errorf("failed to load schema for file %s: %w", filename, err)
	}
	defer func() { _ = fh.Close() }()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"column", "physical", "logical", "optional"})
	table.SetAutoFormatHeaders(false)
	for _, col := range fh.Columns() {
		table.Append([]string{col.Name, col.Physical, col.Logical, fmt.Sprint(col.Optional)})
	}
	table.Render()

	_, _ = fmt.Fprintf(w, "rows: %d, row groups: %d\n", fh.NumRows(), fh.NumRowGroups())

	// Nullability is left out: the engine reports every column as nullable
	// regardless of the footer.
	got := fh.Schema()
	expected := quality.ExpectedSchema()
	for i := range got {
		got[i].Nullable = true
	}
	if got.Equal(expected) {
		_, _ = fmt.Fprintln(w, "schema matches the expected output schema")
	} else {
		_, _ = fmt.Fprintf(w, "schema differs from the expected output schema\n  expected: %s\n  got:      %s\n", expected, got)
	}
	return nil
}

func runParquetCat(w io.Writer, filename string, limit int) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return fmt.Errorf("failed to open parquet file: %w", err)
	}

	reader := parquet.NewGenericReader[map[string]any](pf, pf.Schema())
	defer func() { _ = reader.Close() }()

	enc := json.NewEncoder(w)
	rowsOutput := 0
	batchSize := 1000
	if limit > 0 && limit < batchSize {
		batchSize = limit
	}

	for limit <= 0 || rowsOutput < limit {
		currentBatchSize := batchSize
		if limit > 0 && rowsOutput+batchSize > limit {
			currentBatchSize = limit - rowsOutput
		}

		rows := make([]map[string]any, currentBatchSize)
		for i := range rows {
			rows[i] = make(map[string]any)
		}

		n, err := reader.Read(rows)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("error reading parquet rows: %w", err)
		}

		for i := 0; i < n; i++ {
			if err := enc.Encode(rows[i]); err != nil {
				return fmt.Errorf("error marshaling row to JSON: %w", err)
			}
			rowsOutput++
		}

		if n == 0 || errors.Is(err, io.EOF) {
			break
		}
	}

	return nil
}
