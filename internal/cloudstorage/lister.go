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

// Package cloudstorage lists the output files of a dataset location.
package cloudstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/cardinalhq/lakeverify/internal/azureclient"
	"github.com/cardinalhq/lakeverify/internal/duckdbx"
	"github.com/cardinalhq/lakeverify/internal/storagepath"
)

// Lister kinds accepted by NewLister.
const (
	ListerEngine = "engine"
	ListerBlob   = "blob"
)

// ObjectInfo describes one listed file. Size and Modified are zero when the
// lister cannot provide them.
type ObjectInfo struct {
	Name     string
	Size     int64
	Modified time.Time
}

// Lister finds files matching a glob pattern.
type Lister interface {
	Glob(ctx context.Context, pattern string) ([]ObjectInfo, error)
}

// NewLister picks a lister for the location. Local locations always use the
// filesystem unless the engine lister is requested; the blob lister needs an
// Azure location.
func NewLister(ctx context.Context, kind string, loc storagepath.Location, session *duckdbx.Session, mgr *azureclient.Manager) (Lister, error) {
	switch kind {
	case ListerEngine, "":
		if session == nil {
			return nil, fmt.Errorf("engine lister requires a session")
		}
		return NewEngineLister(session.Conn()), nil
	case ListerBlob:
		if !loc.Remote() {
			return NewFileLister(), nil
		}
		if mgr == nil {
			return nil, fmt.Errorf("blob lister requires an Azure manager")
		}
		bc, err := mgr.GetBlob(ctx,
			azureclient.WithBlobStorageAccount(loc.Account),
			azureclient.WithBlobEndpoint(loc.Endpoint()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
		return NewBlobLister(bc, loc.Container), nil
	default:
		return nil, fmt.Errorf("unsupported lister: %s", kind)
	}
}
