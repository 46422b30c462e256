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

package duckdbx

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// ExtensionsPathEnvVar switches extension loading to air-gapped mode.
const ExtensionsPathEnvVar = "LAKEVERIFY_EXTENSIONS_PATH"

// Option configures a Session before it is opened.
type Option func(*Config)

// Config is the resolved set of session options.
type Config struct {
	MemoryLimitMB int64
	Threads       int
	Extensions    []string
	// AzureAccount, when set, seeds an azure secret scoped to the account.
	AzureAccount string
}

// WithMemoryLimitMB sets a memory limit for DuckDB in megabytes.
func WithMemoryLimitMB(limit int64) Option {
	return func(c *Config) {
		c.MemoryLimitMB = limit
	}
}

// WithThreads sets the number of engine worker threads. Zero keeps the
// engine default.
func WithThreads(n int) Option {
	return func(c *Config) {
		c.Threads = n
	}
}

// WithExtension specifies a DuckDB extension to load on session setup.
func WithExtension(ext string) Option {
	return func(c *Config) {
		for _, existing := range c.Extensions {
			if existing == ext {
				return
			}
		}
		c.Extensions = append(c.Extensions, ext)
	}
}

// WithAzure loads the azure extension and creates a secret for the storage
// account from AZURE_* environment variables.
func WithAzure(account string) Option {
	return func(c *Config) {
		WithExtension("azure")(c)
		c.AzureAccount = account
	}
}

// Session is a live connection to an in-process DuckDB database. All queries
// run on one pinned connection, so settings and secrets apply to every
// statement issued through it.
type Session struct {
	db     *sql.DB
	conn   *sql.Conn
	config Config

	closeOnce sync.Once
	closeErr  error
}

// Open creates an in-memory database and prepares its single connection.
func Open(ctx context.Context, opts ...Option) (*Session, error) {
	config := Config{}
	for _, opt := range opts {
		opt(&config)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect duckdb: %w", err)
	}

	s := &Session{db: db, conn: conn, config: config}
	if err := s.setupConn(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	slog.Debug("duckdbx: session opened",
		"memoryLimitMB", config.MemoryLimitMB,
		"threads", config.Threads,
		"extensions", config.Extensions,
	)
	return s, nil
}

func (s *Session) setupConn(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "PRAGMA enable_object_cache;"); err != nil {
		return fmt.Errorf("enable_object_cache: %w", err)
	}

	if s.config.MemoryLimitMB > 0 {
		if _, err := s.conn.ExecContext(ctx, fmt.Sprintf("SET memory_limit='%dMB';", s.config.MemoryLimitMB)); err != nil {
			return fmt.Errorf("set memory_limit: %w", err)
		}
	}
	if s.config.Threads > 0 {
		if _, err := s.conn.ExecContext(ctx, fmt.Sprintf("PRAGMA threads=%d;", s.config.Threads)); err != nil {
			return fmt.Errorf("set threads: %w", err)
		}
	}

	// Calendar-year extraction must not depend on the host time zone.
	if _, err := s.conn.ExecContext(ctx, "SET TimeZone='UTC';"); err != nil {
		slog.Warn("duckdbx: failed to set TimeZone", "error", err)
	}

	for _, ext := range s.config.Extensions {
		if err := loadExtension(ctx, s.conn, ext); err != nil {
			return fmt.Errorf("failed to load extension '%s': %w", ext, err)
		}
	}

	if s.config.AzureAccount != "" {
		if err := seedAzureSecretFromEnv(ctx, s.conn, s.config.AzureAccount); err != nil {
			return fmt.Errorf("create azure secret: %w", err)
		}
	}
	return nil
}

// Conn returns the session's pinned connection.
func (s *Session) Conn() *sql.Conn {
	return s.conn
}

// Close releases the connection and the database. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			if err := s.conn.Close(); err != nil {
				s.closeErr = err
			}
		}
		if err := s.db.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// Version returns the engine version string.
func (s *Session) Version(ctx context.Context) (string, error) {
	var version string
	if err := s.conn.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get DuckDB version: %w", err)
	}
	return version, nil
}

// Extension is one row of duckdb_extensions().
type Extension struct {
	Name      string
	Loaded    bool
	Installed bool
	Version   string
}

// Extensions lists the engine's known extensions and their status.
func (s *Session) Extensions(ctx context.Context) ([]Extension, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT extension_name, loaded, installed, extension_version FROM duckdb_extensions() ORDER BY extension_name;")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var exts []Extension
	for rows.Next() {
		var e Extension
		var version sql.NullString
		if err := rows.Scan(&e.Name, &e.Loaded, &e.Installed, &version); err != nil {
			return nil, err
		}
		e.Version = version.String
		exts = append(exts, e)
	}
	return exts, rows.Err()
}

// loadExtension handles air-gapped extension loading with fallback to network
func loadExtension(ctx context.Context, conn *sql.Conn, name string) error {
	if base := os.Getenv(ExtensionsPathEnvVar); base != "" {
		return loadAirGappedExtension(ctx, conn, name, base)
	}
	return loadNetworkExtension(ctx, conn, name)
}

// loadAirGappedExtension loads extensions from pre-installed files only
func loadAirGappedExtension(ctx context.Context, conn *sql.Conn, name, basePath string) error {
	specificEnvVar := fmt.Sprintf("LAKEVERIFY_%s_EXTENSION", strings.ToUpper(name))
	path := os.Getenv(specificEnvVar)
	if path == "" {
		path = filepath.Join(basePath, name+".duckdb_extension")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("extension '%s' not found at %s (air-gapped mode): %w", name, path, err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("LOAD '%s';", EscapeSingle(path))); err != nil {
		return fmt.Errorf("failed to load extension from %s: %w", path, err)
	}
	return afterLoad(ctx, conn, name)
}

// loadNetworkExtension loads extensions with network access (development mode)
func loadNetworkExtension(ctx context.Context, conn *sql.Conn, name string) error {
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", name)); err != nil {
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s;", name)); err != nil {
			return fmt.Errorf("failed to install extension: %w", err)
		}
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", name)); err != nil {
			return fmt.Errorf("failed to load extension after install: %w", err)
		}
	}
	return afterLoad(ctx, conn, name)
}

func afterLoad(ctx context.Context, conn *sql.Conn, name string) error {
	if name != "azure" {
		return nil
	}
	// curl transport works behind the proxies the default transport trips on
	if _, err := conn.ExecContext(ctx, "SET azure_transport_option_type = 'curl';"); err != nil {
		return fmt.Errorf("set azure transport option: %w", err)
	}
	return nil
}
