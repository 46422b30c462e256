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

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakeverify/internal/weathergen"
)

func init() {
	defaults := weathergen.DefaultOptions()
	opts := defaults

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic transformed weather output to a local directory",
		RunE: func(c *cobra.Command, _ []string) error {
			dir, err := c.Flags().GetString("dir")
			if err != nil {
				return fmt.Errorf("failed to get dir flag: %w", err)
			}

			_, shutdown, err := setupTelemetry("lakeverify-generate", "")
			if err != nil {
				return err
			}
			defer func() { _ = shutdown() }()

			paths, err := weathergen.Generate(dir, opts)
			if err != nil {
				return err
			}
			slog.Info("Wrote sample output",
				slog.String("dir", dir),
				slog.Int("files", len(paths)),
				slog.Int("rowsPerFile", opts.Hours),
				slog.Int("year", opts.Year))
			return nil
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("dir", "", "Output directory")
	if err := cmd.MarkFlagRequired("dir"); err != nil {
		panic(fmt.Errorf("failed to mark dir flag as required: %w", err))
	}
	cmd.Flags().IntVar(&opts.Year, "year", defaults.Year, "Calendar year of the readings")
	cmd.Flags().IntVar(&opts.Stations, "stations", defaults.Stations, "Number of stations, one file each")
	cmd.Flags().IntVar(&opts.Hours, "hours", defaults.Hours, "Hourly readings per station")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", defaults.Seed, "Random seed")
	cmd.Flags().IntVar(&opts.NullTemperatures, "null-temperatures", 0, "Rows with a null temperature in the first file")
	cmd.Flags().IntVar(&opts.OutOfRange, "out-of-range", 0, "Rows with an implausible temperature in the first file")
	cmd.Flags().IntVar(&opts.OffYearRows, "off-year", 0, "Rows dated in the previous year in the first file")
}
