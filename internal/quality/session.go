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

	"github.com/cardinalhq/lakeverify/config"
	"github.com/cardinalhq/lakeverify/internal/dataset"
	"github.com/cardinalhq/lakeverify/internal/duckdbx"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
)

// OpenSession starts an engine session able to read loc. Failures are
// returned as EnvironmentError.
func OpenSession(ctx context.Context, cfg config.DuckDBConfig, loc storagepath.Location) (*duckdbx.Session, error) {
	opts := []duckdbx.Option{
		duckdbx.WithMemoryLimitMB(cfg.MemoryLimit),
		duckdbx.WithThreads(cfg.Threads),
	}
	if loc.Remote() {
		opts = append(opts, duckdbx.WithAzure(loc.Account))
	}

	s, err := duckdbx.Open(ctx, opts...)
	if err != nil {
		return nil, &EnvironmentError{Op: "open session for", Path: loc.String(), Err: err}
	}
	return s, nil
}

// LoadTable reads the output files of loc. Failures are returned as
// EnvironmentError.
func LoadTable(ctx context.Context, s *duckdbx.Session, loc storagepath.Location, ext string) (*dataset.Table, error) {
	t, err := dataset.Load(ctx, s.Conn(), loc.Glob(ext))
	if err != nil {
		return nil, &EnvironmentError{Op: "read parquet from", Path: loc.String(), Err: err}
	}
	return t, nil
}
