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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/lakeverify/config"
	"github.com/cardinalhq/lakeverify/internal/azureclient"
	"github.com/cardinalhq/lakeverify/internal/cloudstorage"
	"github.com/cardinalhq/lakeverify/internal/logctx"
	"github.com/cardinalhq/lakeverify/internal/quality"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the acceptance checks against the transformed output",
		RunE: func(c *cobra.Command, _ []string) error {
			logFile, err := c.Flags().GetString("log-file")
			if err != nil {
				return fmt.Errorf("failed to get log-file flag: %w", err)
			}

			ctx, shutdown, err := setupTelemetry("lakeverify-verify", logFile)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(); err != nil {
					slog.Error("Error during shutdown", slog.Any("error", err))
				}
			}()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := applyVerifyFlags(c, cfg); err != nil {
				return err
			}

			output, err := c.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to get output flag: %w", err)
			}
			return runVerify(ctx, cfg, os.Stdout, output)
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("path", "", "Dataset location (wasbs://, az:// or a local directory); overrides dataset.path")
	cmd.Flags().Int("year", 0, "Expected calendar year; overrides dataset.expected_year")
	cmd.Flags().String("lister", "", "File lister: engine or blob; overrides storage.lister")
	cmd.Flags().String("log-file", "", "Also write JSON logs to this file")
	cmd.Flags().StringP("output", "o", "table", "Result format: table, json or yaml")
}

func applyVerifyFlags(c *cobra.Command, cfg *config.Config) error {
	flags := c.Flags()
	if flags.Changed("path") {
		v, err := flags.GetString("path")
		if err != nil {
			return fmt.Errorf("failed to get path flag: %w", err)
		}
		cfg.Dataset.Path = v
	}
	if flags.Changed("year") {
		v, err := flags.GetInt("year")
		if err != nil {
			return fmt.Errorf("failed to get year flag: %w", err)
		}
		cfg.Dataset.ExpectedYear = v
	}
	if flags.Changed("lister") {
		v, err := flags.GetString("lister")
		if err != nil {
			return fmt.Errorf("failed to get lister flag: %w", err)
		}
		cfg.Storage.Lister = v
	}
	return cfg.Validate()
}

func runVerify(ctx context.Context, cfg *config.Config, out io.Writer, format string) error {
	if _, ok := reportWriters[format]; !ok {
		return fmt.Errorf("unsupported output format: %s", format)
	}
	loc, err := storagepath.Parse(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "lakeverify.verify")
	defer span.End()
	span.SetAttributes(
		attribute.String("dataset.path", loc.String()),
		attribute.Int("dataset.expected_year", cfg.Dataset.ExpectedYear),
	)

	session, err := quality.OpenSession(ctx, cfg.DuckDB, loc)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close engine session", slog.Any("error", err))
		}
	}()

	var mgr *azureclient.Manager
	if cfg.Storage.Lister == cloudstorage.ListerBlob && loc.Remote() {
		mgr, err = azureclient.NewManager(ctx)
		if err != nil {
			return &quality.EnvironmentError{Op: "create blob client for", Path: loc.String(), Err: err}
		}
	}
	lister, err := cloudstorage.NewLister(ctx, cfg.Storage.Lister, loc, session, mgr)
	if err != nil {
		return err
	}

	ctx = logctx.WithLogger(ctx, slog.Default())
	report := quality.NewSuite(cfg.Dataset, loc, session, lister).Run(ctx)
	span.SetAttributes(attribute.String("run.id", report.RunID), attribute.Bool("run.passed", report.Passed()))

	if err := reportWriters[format](out, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !report.Passed() {
		counts := report.Counts()
		return fmt.Errorf("%d failed, %d errored of %d checks",
			counts[quality.StatusFailed], counts[quality.StatusError], len(report.Results))
	}
	return nil
}

var reportWriters = map[string]func(io.Writer, *quality.Report) error{
	"table": func(w io.Writer, r *quality.Report) error {
		renderReport(w, r)
		return nil
	},
	"json": func(w io.Writer, r *quality.Report) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReportView(r))
	},
	"yaml": func(w io.Writer, r *quality.Report) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newReportView(r)); err != nil {
			return err
		}
		return enc.Close()
	},
}

type resultView struct {
	Check   string  `json:"check" yaml:"check"`
	Column  string  `json:"column,omitempty" yaml:"column,omitempty"`
	Status  string  `json:"status" yaml:"status"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
}

type reportView struct {
	RunID   string       `json:"run_id" yaml:"run_id"`
	Path    string       `json:"path" yaml:"path"`
	Passed  bool         `json:"passed" yaml:"passed"`
	Results []resultView `json:"results" yaml:"results"`
}

func newReportView(r *quality.Report) reportView {
	v := reportView{RunID: r.RunID, Path: r.Path, Passed: r.Passed()}
	for _, res := range r.Results {
		rv := resultView{
			Check:   res.Name,
			Column:  res.Column,
			Status:  string(res.Status),
			Seconds: res.Duration.Seconds(),
		}
		if res.Err != nil {
			rv.Message = res.Err.Error()
		}
		v.Results = append(v.Results, rv)
	}
	return v
}

// renderReport prints one row per check result.
func renderReport(w io.Writer, r *quality.Report) {
	_, _ = fmt.Fprintf(w, "run %s against %s\n", r.RunID, r.Path)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Check", "Status", "Duration", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, res := range r.Results {
		detail := ""
		if res.Err != nil {
			detail = strings.ReplaceAll(res.Err.Error(), "\n", " ")
		}
		table.Append([]string{
			res.Label(),
			strings.ToUpper(string(res.Status)),
			res.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}
	table.Render()

	counts := r.Counts()
	_, _ = fmt.Fprintf(w, "%d passed, %d failed, %d errored\n",
		counts[quality.StatusPassed], counts[quality.StatusFailed], counts[quality.StatusError])
}
