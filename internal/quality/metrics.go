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

package quality

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/cardinalhq/lakeverify/internal/quality")

	checkDuration metric.Float64Histogram
	checkResults  metric.Int64Counter
)

func init() {
	m, err := meter.Float64Histogram(
		"lakeverify.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("The duration in seconds of one data-quality check"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create check.duration histogram: %w", err))
	}
	checkDuration = m

	c, err := meter.Int64Counter(
		"lakeverify.check.results",
		metric.WithDescription("Check outcomes by check name and status"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create check.results counter: %w", err))
	}
	checkResults = c
}

func recordResult(ctx context.Context, name string, status Status, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("check", name),
		attribute.String("status", string(status)),
	)
	checkDuration.Record(ctx, d.Seconds(), attrs)
	checkResults.Add(ctx, 1, attrs)
}
