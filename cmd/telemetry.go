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
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cardinalhq/oteltools/pkg/telemetry"
	"github.com/hashicorp/go-multierror"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/host"
	iruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"

	"github.com/cardinalhq/lakeverify/internal/helpers"
)

var tracer = otel.Tracer("github.com/cardinalhq/lakeverify")

// logOutput receives the text log stream. Stdout is reserved for command
// output such as verify reports.
var logOutput io.Writer = os.Stderr

// setupTelemetry installs the default logger, writing text records to
// logOutput, and returns a context that is cancelled on shutdown signals.
// When logFile is set, records are also written there as JSON. With
// OTEL_SERVICE_NAME set and ENABLE_OTLP_TELEMETRY on, logs, traces and
// metrics are exported over OTLP as well. The returned func flushes
// exporters, closes the file and releases the signal handler.
func setupTelemetry(servicename, logFile string) (context.Context, func() error, error) {
	doneCtx, doneCancel := handleSignals(context.Background())

	// Configure slog level based on DEBUG environment variables
	var opts *slog.HandlerOptions
	if helpers.AnyBoolEnv(false, "LAKEVERIFY_DEBUG", "DEBUG") {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	handlers := []slog.Handler{slog.NewTextHandler(logOutput, opts)}
	var closers []func() error

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			doneCancel()
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closers = append(closers, f.Close)
	}

	otlp := os.Getenv("OTEL_SERVICE_NAME") != "" && helpers.BoolEnv("ENABLE_OTLP_TELEMETRY", false)
	if otlp {
		handlers = append(handlers, otelslog.NewHandler(servicename))

		otelShutdown, err := telemetry.SetupOTelSDK(doneCtx)
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			doneCancel()
			return nil, nil, fmt.Errorf("failed to setup OpenTelemetry SDK: %w", err)
		}
		if err := iruntime.Start(iruntime.WithMinimumReadMemStatsInterval(10 * time.Second)); err != nil {
			slog.Warn("failed to start runtime metrics", "error", err.Error())
		}
		if err := host.Start(); err != nil {
			slog.Warn("failed to start host metrics", "error", err.Error())
		}

		closers = append(closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return otelShutdown(ctx)
		})
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)).With(
		slog.String("service", servicename),
	))
	if otlp {
		slog.Info("OpenTelemetry exporting enabled")
	}

	shutdown := func() error {
		defer doneCancel()
		var errs *multierror.Error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		return errs.ErrorOrNil()
	}
	return doneCtx, shutdown, nil
}
