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
	"os"
	"strings"
)

// BoolEnv reports whether the named environment variable is switched on.
// Unset, empty and unrecognized values yield def.
func BoolEnv(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}

// AnyBoolEnv is BoolEnv over several names; the first one set to a
// recognized value wins.
func AnyBoolEnv(def bool, names ...string) bool {
	for _, name := range names {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
		if v == "" {
			continue
		}
		switch v {
		case "true", "1", "yes", "on", "false", "0", "no", "off":
			return BoolEnv(name, def)
		}
	}
	return def
}
