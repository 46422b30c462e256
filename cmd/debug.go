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
	"github.com/spf13/cobra"

	debugcmd "github.com/cardinalhq/lakeverify/cmd/debug"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug commands for troubleshooting",
	Long:  `Debug commands for inspecting the query engine, storage listings and Parquet files.`,
}

func init() {
	debugCmd.AddCommand(debugcmd.GetDDBCmd())
	debugCmd.AddCommand(debugcmd.GetLSCmd())
	debugCmd.AddCommand(debugcmd.GetParquetCmd())
}
