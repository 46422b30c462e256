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

package cloudstorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// fileLister lists the local filesystem. It is used for local dataset
// paths and in tests that bypass real cloud providers.
type fileLister struct{}

func NewFileLister() Lister {
	return fileLister{}
}

func (fileLister) Glob(ctx context.Context, pattern string) ([]ObjectInfo, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)

	out := make([]ObjectInfo, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if fi.IsDir() {
			continue
		}
		out = append(out, ObjectInfo{Name: m, Size: fi.Size(), Modified: fi.ModTime()})
	}
	return out, nil
}
