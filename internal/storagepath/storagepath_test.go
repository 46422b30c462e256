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

package storagepath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWasbs(t *testing.T) {
	loc, err := Parse("wasbs://output@datavalidation456.blob.core.windows.net/transformed_weather_data/")
	require.NoError(t, err)

	require.Equal(t, SchemeAzure, loc.Scheme)
	require.Equal(t, "datavalidation456", loc.Account)
	require.Equal(t, "output", loc.Container)
	require.Equal(t, "transformed_weather_data/", loc.Folder)
	require.True(t, loc.Remote())
	require.Equal(t, "az://output/transformed_weather_data/*.parquet", loc.Glob("parquet"))
	require.Equal(t, "az://output/transformed_weather_data/*.parquet", loc.Glob(".parquet"))
	require.Equal(t, "transformed_weather_data/", loc.Prefix())
	require.Equal(t, "https://datavalidation456.blob.core.windows.net/", loc.Endpoint())
}

func TestParseContainerRoot(t *testing.T) {
	loc, err := Parse("wasb://output@acct.blob.core.windows.net")
	require.NoError(t, err)
	require.Equal(t, "", loc.Folder)
	require.Equal(t, "az://output/*.parquet", loc.Glob("parquet"))
}

func TestParseAz(t *testing.T) {
	t.Setenv(AccountEnvVar, "acct")
	loc, err := Parse("az://output/a/b")
	require.NoError(t, err)
	require.Equal(t, SchemeAzure, loc.Scheme)
	require.Equal(t, "acct", loc.Account)
	require.Equal(t, "output", loc.Container)
	require.Equal(t, "a/b/", loc.Folder)
	require.Equal(t, "https://acct.blob.core.windows.net/", loc.Endpoint())

	loc, err = Parse("azure://output/a")
	require.NoError(t, err)
	require.Equal(t, "a/", loc.Folder)
}

func TestParseAzWithoutAccount(t *testing.T) {
	t.Setenv(AccountEnvVar, "")
	_, err := Parse("az://output/a/b")
	require.Error(t, err)
	require.Contains(t, err.Error(), AccountEnvVar)
}

func TestParseLocal(t *testing.T) {
	dir := t.TempDir()

	loc, err := Parse(dir)
	require.NoError(t, err)
	require.Equal(t, SchemeLocal, loc.Scheme)
	require.False(t, loc.Remote())
	require.Equal(t, filepath.Join(dir, "*.parquet"), loc.Glob("parquet"))

	loc, err = Parse("file://" + filepath.ToSlash(dir))
	require.NoError(t, err)
	require.Equal(t, SchemeLocal, loc.Scheme)
	require.Equal(t, dir, loc.Dir)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "  "},
		{"no container", "wasbs://acct.blob.core.windows.net/folder"},
		{"wrong host", "wasbs://output@acct.dfs.core.windows.net/folder"},
		{"no account", "wasbs://output@.blob.core.windows.net/folder"},
		{"unsupported scheme", "s3://bucket/key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			require.Error(t, err)
		})
	}
}
