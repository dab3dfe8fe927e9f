// Package sqlite runs sqliter statements against a SQLite database through
// database/sql. Both the pure Go driver (modernc.org/sqlite, registered as
// "sqlite") and the cgo driver (github.com/mattn/go-sqlite3, registered as
// "sqlite3") are linked in; Config.Driver picks one.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"

	"github.com/tinywasm/sqliter"
)

const (
	// DriverModernc is the pure Go driver.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo driver.
	DriverMattn = "sqlite3"

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"

	dirPermissions  = 0750
	filePermissions = 0600
	msPerSecond     = 1000

	connectionTimeout = 5 * time.Second
	connMaxIdleTime   = 30 * time.Minute
)

// Config selects the driver and file for Open.
type Config struct {
	// Driver is DriverModernc (default) or DriverMattn.
	Driver string
	// Path is the database file, or MemoryPath.
	// The parent directory is created if it doesn't exist.
	Path string
	// WALMode enables Write-Ahead Logging. Ignored for in-memory databases.
	WALMode bool
	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// DB is a sqliter.Executor over a *sql.DB.
type DB struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ sqliter.Executor = (*DB)(nil)

// Open creates the database if needed, applies the connection pragmas and
// verifies the connection.
func Open(cfg Config, logger *slog.Logger) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening database: empty path")
	}
	memory := cfg.Path == MemoryPath

	if !memory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite has a single writer, and an in-memory database lives only as
	// long as its one connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if !memory {
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if !memory {
		// The file may not exist until the first write.
		_ = os.Chmod(cfg.Path, filePermissions)
	}

	db := New(sqlDB, logger)
	db.path = cfg.Path
	db.logger.Info("database opened", "driver", cfg.Driver, "path", cfg.Path, "wal", cfg.WALMode && !memory)
	return db, nil
}

// DSN builds the driver-specific connection string for cfg.
func DSN(cfg Config) (string, error) {
	memory := cfg.Path == MemoryPath
	busy := cfg.BusyTimeout * msPerSecond

	switch cfg.Driver {
	case DriverModernc, "":
		pragmas := []string{
			fmt.Sprintf("_pragma=busy_timeout(%d)", busy),
			"_pragma=foreign_keys(1)",
		}
		if cfg.WALMode && !memory {
			pragmas = append(pragmas, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
		}
		return "file:" + cfg.Path + "?" + strings.Join(pragmas, "&"), nil

	case DriverMattn:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", cfg.Path, busy)
		if cfg.WALMode && !memory {
			dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
		}
		return dsn, nil
	}
	return "", fmt.Errorf("unsupported sqlite driver %q", cfg.Driver)
}

// New wraps an already open handle. A nil logger discards.
func New(db *sql.DB, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DB{db: db, logger: logger}
}

// Run executes a statement that returns no rows.
func (d *DB) Run(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	d.logger.Debug("statement executed", "query", query, "affected", n)
	return n, nil
}

// All executes a query and returns every row keyed by column name.
// TEXT values some drivers report as []byte come back as string.
func (d *DB) All(ctx context.Context, query string, args ...any) ([]sqliter.Row, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	out := []sqliter.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(sqliter.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	d.logger.Debug("query executed", "query", query, "rows", len(out))
	return out, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the database file path, empty for handles built with New.
func (d *DB) Path() string {
	return d.path
}

// HealthCheck verifies the connection with a trivial query.
func (d *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := d.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
