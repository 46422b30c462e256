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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakeverify/internal/duckdbx"
	"github.com/cardinalhq/lakeverify/internal/helpers"
)

func GetDDBCmd() *cobra.Command {
	ddbCmd := &cobra.Command{
		Use:   "ddb",
		Short: "DuckDB debugging commands",
	}

	ddbCmd.AddCommand(getExtensionsCmd())
	ddbCmd.AddCommand(getVersionCmd())
	ddbCmd.AddCommand(getMemoryCmd())

	return ddbCmd
}

func getExtensionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extensions",
		Short: "List DuckDB extensions and their status",
		RunE: func(c *cobra.Command, _ []string) error {
			load, err := c.Flags().GetStringSlice("load")
			if err != nil {
				return fmt.Errorf("failed to get load flag: %w", err)
			}
			return runExtensions(c.Context(), load)
		},
	}
	cmd.Flags().StringSlice("load", nil, "Extensions to load before listing, e.g. azure")
	return cmd
}

func getVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the DuckDB version and extension loading mode",
		RunE: func(c *cobra.Command, _ []string) error {
			expect, err := c.Flags().GetString("expect")
			if err != nil {
				return fmt.Errorf("failed to get expect flag: %w", err)
			}
			return runVersion(c.Context(), expect)
		},
	}
	cmd.Flags().String("expect", "", "Fail unless the version contains this string, e.g. v1.3.2")
	return cmd
}

func getMemoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "memory",
		Short: "Show DuckDB memory usage for a fresh session",
		RunE: func(c *cobra.Command, _ []string) error {
			return runMemory(c.Context())
		},
	}
}

func openSession(ctx context.Context, extensions ...string) (*duckdbx.Session, error) {
	opts := make([]duckdbx.Option, 0, len(extensions))
	for _, ext := range extensions {
		opts = append(opts, duckdbx.WithExtension(ext))
	}
	return duckdbx.Open(ctx, opts...)
}

// runExtensions lists DuckDB extensions and their status.
func runExtensions(ctx context.Context, load []string) error {
	s, err := openSession(ctx, load...)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	exts, err := s.Extensions(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"extension_name", "availability", "extension_version"})
	table.SetAutoFormatHeaders(false)
	for _, e := range exts {
		table.Append([]string{e.Name, availability(e), e.Version})
	}
	table.Render()
	return nil
}

func availability(e duckdbx.Extension) string {
	switch {
	case e.Loaded:
		return "loaded"
	case e.Installed:
		return "available"
	default:
		return "not available"
	}
}

// runVersion prints the engine version and, in air-gapped mode, whether the
// azure extension file is present.
func runVersion(ctx context.Context, expect string) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	version, err := s.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("DuckDB version: %s\n", version)

	if expect != "" && !strings.Contains(version, expect) {
		return fmt.Errorf("DuckDB version mismatch: expected %s, got %s", expect, version)
	}

	extensionsPath := os.Getenv(duckdbx.ExtensionsPathEnvVar)
	if extensionsPath == "" {
		fmt.Println("Extension mode: network (INSTALL on demand)")
		return nil
	}

	fmt.Printf("Extension mode: air-gapped (%s=%s)\n", duckdbx.ExtensionsPathEnvVar, extensionsPath)
	extPath := os.Getenv("LAKEVERIFY_AZURE_EXTENSION")
	if extPath == "" {
		extPath = filepath.Join(extensionsPath, "azure.duckdb_extension")
	}
	if _, err := os.Stat(extPath); err != nil {
		fmt.Printf("  azure: missing (%s)\n", extPath)
	} else {
		fmt.Printf("  azure: found (%s)\n", extPath)
	}
	return nil
}

func runMemory(ctx context.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	stats, err := s.MemoryStats(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"database", "database_size", "memory_usage", "memory_limit"})
	table.SetAutoFormatHeaders(false)
	for _, st := range stats {
		table.Append([]string{
			st.DatabaseName,
			fmt.Sprint(st.DatabaseSize),
			fmt.Sprint(st.MemoryUsage),
			fmt.Sprint(st.MemoryLimit),
		})
	}
	table.Render()

	tmp := os.TempDir()
	usage, err := helpers.DiskUsage(tmp)
	if err != nil {
		return fmt.Errorf("failed to stat temp dir %s: %w", tmp, err)
	}
	fmt.Printf("spill dir %s: %d of %d bytes free\n", tmp, usage.FreeBytes, usage.TotalBytes)
	return nil
}
