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

import "github.com/cardinalhq/lakeverify/internal/dataset"

// ExpectedSchema is the transformed weather output layout. Every column is
// nullable because the upstream engine writes optional Parquet columns.
func ExpectedSchema() dataset.Schema {
	return dataset.Schema{
		{Name: "station_id_usaf", Type: dataset.TypeString, Nullable: true},
		{Name: "station_id_wban", Type: dataset.TypeString, Nullable: true},
		{Name: "timestamp", Type: dataset.TypeTimestamp, Nullable: true},
		{Name: "latitude", Type: dataset.TypeDouble, Nullable: true},
		{Name: "longitude", Type: dataset.TypeDouble, Nullable: true},
		{Name: "elevation", Type: dataset.TypeDouble, Nullable: true},
		{Name: "temperature", Type: dataset.TypeDouble, Nullable: true},
	}
}
