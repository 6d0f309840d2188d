package submissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"inboxwatch/internal/config"
	"inboxwatch/internal/faults"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	postgresMaxOpenConns    = 4
	postgresMaxIdleConns    = 2
	postgresConnMaxLifetime = 5 * time.Minute
)

// Options describes how to reach the submission table.
type Options struct {
	DSN           string
	Table         string
	LegacyColumns bool
	// Timeout bounds every store round trip; zero leaves the caller's
	// context in charge.
	Timeout time.Duration
	// Create allows a missing SQLite file to be created. The watcher and
	// viewer leave it false so a typo in the DSN is reported instead of
	// silently producing an empty store.
	Create bool
}

// Store manages access to the submission table.
type Store struct {
	db      *sql.DB
	dialect dialect
	table   string
	cols    Columns
	timeout time.Duration
}

// OptionsFromConfig builds store options from the [store] section.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	dsn, err := cfg.StoreDSN()
	if err != nil {
		return Options{}, err
	}
	if DetectDriver(dsn) == DriverSQLite {
		if path := sqlitePath(dsn); path != "" && !strings.HasPrefix(path, "file:") && path != ":memory:" {
			resolved, err := cfg.ResolvePath(path)
			if err != nil {
				return Options{}, err
			}
			dsn = resolved
		}
	}
	return Options{
		DSN:           dsn,
		Table:         cfg.Store.Table,
		LegacyColumns: cfg.Store.LegacyColumns,
		Timeout:       time.Duration(cfg.Store.TimeoutSeconds) * time.Second,
	}, nil
}

// Open connects to the store described by opts and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	ctx = ensureContext(ctx)
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return nil, faults.Wrap(faults.ErrConfigurationMissing, "store", "open", "dsn is empty", nil)
	}
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = "submissions"
	}
	cols := DefaultColumns
	if opts.LegacyColumns {
		cols = LegacyColumns
	}

	driver := DetectDriver(dsn)
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = openPostgres(dsn)
	default:
		db, err = openSQLite(dsn, opts.Create)
	}
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, dialect: dialect{driver: driver}, table: table, cols: cols, timeout: opts.Timeout}
	pingCtx, cancel := store.withTimeout(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "ping", driver, err)
	}
	return store, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "open", "postgres", err)
	}
	db.SetMaxOpenConns(postgresMaxOpenConns)
	db.SetMaxIdleConns(postgresMaxIdleConns)
	db.SetConnMaxLifetime(postgresConnMaxLifetime)
	return db, nil
}

func openSQLite(dsn string, create bool) (*sql.DB, error) {
	path := sqlitePath(dsn)
	if file := sqliteFile(dsn); file != "" {
		if _, err := os.Stat(file); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || !create {
				return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "open", "sqlite file "+file, err)
			}
			if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
				return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "open", "create directory", err)
			}
		}
	}

	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "open", "sqlite", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, faults.Wrap(faults.ErrStoreUnavailable, "store", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}
	return db, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the database driver in use.
func (s *Store) Driver() string {
	return s.dialect.driver
}

// Table reports the submission table name.
func (s *Store) Table() string {
	return s.table
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = ensureContext(ctx)
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	query = s.dialect.rebind(query)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
