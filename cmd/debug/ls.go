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
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakeverify/config"
	"github.com/cardinalhq/lakeverify/internal/azureclient"
	"github.com/cardinalhq/lakeverify/internal/cloudstorage"
	"github.com/cardinalhq/lakeverify/internal/quality"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
)

func GetLSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the data files the checks would read",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.Flags().Changed("path") {
				if cfg.Dataset.Path, err = c.Flags().GetString("path"); err != nil {
					return fmt.Errorf("failed to get path flag: %w", err)
				}
			}
			if c.Flags().Changed("lister") {
				if cfg.Storage.Lister, err = c.Flags().GetString("lister"); err != nil {
					return fmt.Errorf("failed to get lister flag: %w", err)
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runLS(c.Context(), cfg)
		},
	}

	cmd.Flags().String("path", "", "Dataset location; defaults to dataset.path")
	cmd.Flags().String("lister", "", "engine or blob; defaults to storage.lister")

	return cmd
}

func runLS(ctx context.Context, cfg *config.Config) error {
	loc, err := storagepath.Parse(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	session, err := quality.OpenSession(ctx, cfg.DuckDB, loc)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	var mgr *azureclient.Manager
	if cfg.Storage.Lister == cloudstorage.ListerBlob && loc.Remote() {
		if mgr, err = azureclient.NewManager(ctx); err != nil {
			return err
		}
	}
	lister, err := cloudstorage.NewLister(ctx, cfg.Storage.Lister, loc, session, mgr)
	if err != nil {
		return err
	}

	pattern := loc.Glob(cfg.Dataset.FileExtension)
	files, err := lister.Glob(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", pattern, err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"name", "size", "modified"})
	table.SetAutoFormatHeaders(false)
	for _, f := range files {
		size, modified := "-", "-"
		if f.Size > 0 {
			size = fmt.Sprint(f.Size)
		}
		if !f.Modified.IsZero() {
			modified = f.Modified.UTC().Format(time.RFC3339)
		}
		table.Append([]string{f.Name, size, modified})
	}
	table.Render()
	fmt.Printf("%d files matching %s\n", len(files), pattern)
	return nil
}
