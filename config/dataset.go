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

package config

// Defaults for the transformed NOAA weather output.
const (
	DefaultStorageAccount = "datavalidation456"
	DefaultContainer      = "output"
	DefaultFolder         = "transformed_weather_data"
	DefaultExpectedYear   = 2023
	DefaultTemperatureMin = -100.0
	DefaultTemperatureMax = 100.0
)

// DefaultDatasetPath is the wasbs URL built from the defaults above.
const DefaultDatasetPath = "wasbs://" + DefaultContainer + "@" + DefaultStorageAccount + ".blob.core.windows.net/" + DefaultFolder + "/"

// DatasetConfig describes the artifact under test and its expectations.
type DatasetConfig struct {
	Path              string   `mapstructure:"path" validate:"required"`
	FileExtension     string   `mapstructure:"file_extension" validate:"required"`
	ExpectedYear      int      `mapstructure:"expected_year" validate:"gte=1,lte=9999"`
	TimestampColumn   string   `mapstructure:"timestamp_column" validate:"required"`
	TemperatureColumn string   `mapstructure:"temperature_column" validate:"required"`
	TemperatureMin    float64  `mapstructure:"temperature_min" validate:"ltefield=TemperatureMax"`
	TemperatureMax    float64  `mapstructure:"temperature_max"`
	KeyColumns        []string `mapstructure:"key_columns" validate:"min=1,dive,required"`
}

func DefaultDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Path:              DefaultDatasetPath,
		FileExtension:     "parquet",
		ExpectedYear:      DefaultExpectedYear,
		TimestampColumn:   "timestamp",
		TemperatureColumn: "temperature",
		TemperatureMin:    DefaultTemperatureMin,
		TemperatureMax:    DefaultTemperatureMax,
		KeyColumns:        []string{"station_id_usaf", "timestamp", "temperature"},
	}
}

// StorageConfig selects how output files are listed.
type StorageConfig struct {
	// Lister is "engine" (the query engine's glob) or "blob" (Azure SDK).
	Lister string `mapstructure:"lister" validate:"oneof=engine blob"`
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{Lister: "engine"}
}
