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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolEnv(t *testing.T) {
	const name = "LAKEVERIFY_TEST_FLAG"
	for value, want := range map[string]bool{
		"true": true, "TRUE": true, " 1 ": true, "yes": true, "on": true,
		"false": false, "0": false, "no": false, "off": false,
	} {
		t.Setenv(name, value)
		assert.Equal(t, want, BoolEnv(name, !want), value)
	}

	t.Setenv(name, "")
	assert.True(t, BoolEnv(name, true))
	t.Setenv(name, "maybe")
	assert.False(t, BoolEnv(name, false))
}

func TestAnyBoolEnv(t *testing.T) {
	t.Setenv("LV_A", "")
	t.Setenv("LV_B", "bogus")
	t.Setenv("LV_C", "on")
	assert.True(t, AnyBoolEnv(false, "LV_A", "LV_B", "LV_C"))
	assert.False(t, AnyBoolEnv(false, "LV_A", "LV_B"))
}

func TestDiskUsage(t *testing.T) {
	u, err := DiskUsage(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, u.TotalBytes, uint64(0))
	assert.Equal(t, u.TotalBytes-u.FreeBytes, u.UsedBytes)

	_, err = DiskUsage("/does/not/exist")
	assert.Error(t, err)
}
