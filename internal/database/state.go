package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/origincheck/internal/api"
)

// FileName is the database file created inside the data directory.
const FileName = "origincheck.db"

// StateDB is the local state store.
type StateDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StateDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StateDB in dir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dir string, opts Options) (*StateDB, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StateDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StateDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *StateDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StateDB) createTables() error {
	schema := `
	-- Session cookies, one row per (server, cookie name)
	CREATE TABLE IF NOT EXISTS cookies (
		server TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		expires INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (server, name)
	);

	-- Analyses submitted from this machine
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		server TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		originality REAL,
		ai_probability REAL,
		citation_count INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		report_path TEXT NOT NULL DEFAULT '',
		downloaded_path TEXT NOT NULL DEFAULT '',
		report_digest TEXT NOT NULL DEFAULT '',
		report_pages INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_started ON analyses(started_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_report ON analyses(report_path);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// LoadCookies implements api.CookieStore.
func (sdb *StateDB) LoadCookies(ctx context.Context, server string) ([]api.StoredCookie, error) {
	query := `
	SELECT name, value, path, expires FROM cookies
	WHERE server = ?
	ORDER BY name
	`

	rows, err := sdb.db.QueryContext(ctx, query, server)
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	defer rows.Close()

	var cookies []api.StoredCookie
	for rows.Next() {
		var c api.StoredCookie
		var expires int64
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// SaveCookie implements api.CookieStore. An existing cookie with the same
// name is replaced.
func (sdb *StateDB) SaveCookie(ctx context.Context, server string, c api.StoredCookie) error {
	var expires int64
	if !c.Expires.IsZero() {
		expires = c.Expires.Unix()
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	query := `
	INSERT INTO cookies (server, name, value, path, expires, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(server, name) DO UPDATE SET
		value = excluded.value,
		path = excluded.path,
		expires = excluded.expires,
		updated_at = excluded.updated_at
	`
	if _, err := sdb.db.ExecContext(ctx, query, server, c.Name, c.Value, path, expires, formatTime(time.Now())); err != nil {
		return fmt.Errorf("failed to save cookie: %w", err)
	}
	return nil
}

// DeleteCookie implements api.CookieStore.
func (sdb *StateDB) DeleteCookie(ctx context.Context, server, name string) error {
	if _, err := sdb.db.ExecContext(ctx, `DELETE FROM cookies WHERE server = ? AND name = ?`, server, name); err != nil {
		return fmt.Errorf("failed to delete cookie: %w", err)
	}
	return nil
}

// ClearCookies implements api.CookieStore.
func (sdb *StateDB) ClearCookies(ctx context.Context, server string) error {
	if _, err := sdb.db.ExecContext(ctx, `DELETE FROM cookies WHERE server = ?`, server); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// ErrAnalysisNotFound is returned when no journal entry matches.
var ErrAnalysisNotFound = errors.New("analysis not found")

// formatTime renders a time for TEXT columns.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a TEXT column written by formatTime.
// Unparseable or empty values yield the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
