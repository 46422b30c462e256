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

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates configuration for the application.
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Storage StorageConfig `mapstructure:"storage"`
	DuckDB  DuckDBConfig  `mapstructure:"duckdb"`
}

var validate = validator.New()

// Load reads configuration from a .env file, an optional lakeverify.yaml in
// the working directory, and environment variables. Environment variables
// use the prefix "LAKEVERIFY" and the dot character in keys is replaced by
// an underscore. For example, "dataset.expected_year" becomes
// "LAKEVERIFY_DATASET_EXPECTED_YEAR".
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Dataset: DefaultDatasetConfig(),
		Storage: DefaultStorageConfig(),
		DuckDB:  DefaultDuckDBConfig(),
	}

	v := viper.New()
	v.SetConfigName("lakeverify")
	v.AddConfigPath(".")
	v.SetEnvPrefix("LAKEVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cols := v.GetString("dataset.key_columns"); cols != "" && !strings.HasPrefix(cols, "[") {
		cfg.Dataset.KeyColumns = splitList(cols)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
