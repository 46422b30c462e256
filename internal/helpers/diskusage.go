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

package helpers

import (
	"golang.org/x/sys/unix"
)

// FSUsage is the byte usage of the filesystem holding a path.
type FSUsage struct {
	TotalBytes uint64
	// FreeBytes is what an unprivileged process may still write.
	FreeBytes uint64
	UsedBytes uint64
}

// DiskUsage stats the filesystem containing path. The engine spills to
// TMPDIR, so this is how much room a large scan has.
func DiskUsage(path string) (FSUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSUsage{}, err
	}
	total := st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	return FSUsage{TotalBytes: total, FreeBytes: free, UsedBytes: total - free}, nil
}
