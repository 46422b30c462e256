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

// Package storagepath parses the dataset locations lakeverify reads from.
package storagepath

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Scheme identifies where a dataset lives.
type Scheme string

const (
	SchemeAzure Scheme = "azure"
	SchemeLocal Scheme = "local"
)

const blobHostSuffix = ".blob.core.windows.net"

// AccountEnvVar names the storage account for az:// locations, which do not
// carry one.
const AccountEnvVar = "AZURE_STORAGE_ACCOUNT"

// Location is a parsed dataset location.
type Location struct {
	Scheme    Scheme
	Account   string
	Container string
	// Folder is the blob-name prefix inside the container. When non-empty it
	// always ends with a slash.
	Folder string
	// Dir is the local directory for SchemeLocal.
	Dir string

	raw string
}

// Parse accepts wasbs://, wasb://, az://, file:// and bare local paths.
func Parse(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("dataset path is empty")
	}

	if !strings.Contains(raw, "://") {
		dir, err := filepath.Abs(raw)
		if err != nil {
			return Location{}, fmt.Errorf("resolve local path %s: %w", raw, err)
		}
		return Location{Scheme: SchemeLocal, Dir: dir, raw: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse dataset path %s: %w", raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "wasbs", "wasb":
		if u.User == nil || u.User.Username() == "" {
			return Location{}, fmt.Errorf("dataset path %s: missing container@account", raw)
		}
		host := strings.ToLower(u.Host)
		if !strings.HasSuffix(host, blobHostSuffix) {
			return Location{}, fmt.Errorf("dataset path %s: host must end with %s", raw, blobHostSuffix)
		}
		account := strings.TrimSuffix(host, blobHostSuffix)
		if account == "" {
			return Location{}, fmt.Errorf("dataset path %s: missing storage account", raw)
		}
		return Location{
			Scheme:    SchemeAzure,
			Account:   account,
			Container: u.User.Username(),
			Folder:    normalizeFolder(u.Path),
			raw:       raw,
		}, nil
	case "az", "azure":
		if u.Host == "" {
			return Location{}, fmt.Errorf("dataset path %s: missing container", raw)
		}
		account := os.Getenv(AccountEnvVar)
		if account == "" {
			return Location{}, fmt.Errorf("dataset path %s: %s must name the storage account", raw, AccountEnvVar)
		}
		return Location{
			Scheme:    SchemeAzure,
			Account:   account,
			Container: u.Host,
			Folder:    normalizeFolder(u.Path),
			raw:       raw,
		}, nil
	case "file":
		if u.Path == "" {
			return Location{}, fmt.Errorf("dataset path %s: missing directory", raw)
		}
		return Location{Scheme: SchemeLocal, Dir: filepath.Clean(filepath.FromSlash(u.Path)), raw: raw}, nil
	default:
		return Location{}, fmt.Errorf("dataset path %s: unsupported scheme %q", raw, u.Scheme)
	}
}

func normalizeFolder(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// Remote reports whether the location requires the engine's azure extension.
func (l Location) Remote() bool {
	return l.Scheme == SchemeAzure
}

// Glob returns the pattern the query engine uses to find files with the
// given extension directly under the location.
func (l Location) Glob(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if l.Scheme == SchemeLocal {
		return filepath.Join(l.Dir, "*."+ext)
	}
	return "az://" + l.Container + "/" + l.Folder + "*." + ext
}

// Prefix is the blob-name prefix for SDK listing.
func (l Location) Prefix() string {
	return l.Folder
}

// Endpoint returns the blob service endpoint for the storage account.
func (l Location) Endpoint() string {
	if l.Account == "" {
		return ""
	}
	return "https://" + l.Account + blobHostSuffix + "/"
}

func (l Location) String() string {
	if l.raw != "" {
		return l.raw
	}
	if l.Scheme == SchemeLocal {
		return l.Dir
	}
	return fmt.Sprintf("wasbs://%s@%s%s/%s", l.Container, l.Account, blobHostSuffix, l.Folder)
}
